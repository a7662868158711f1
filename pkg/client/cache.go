package client

import (
	"net/url"
	"strings"
	"sync"

	"dwitter/internal/models"
)

const feedKey = "feed"

// cacheEntry is either a single dweet view ("dweet:<id>") or a set of
// fetched pages for one list query key.
type cacheEntry struct {
	dweet *models.DweetView
	pages map[int]*DweetPage
	stale bool
}

// Cache holds fetched views keyed by canonical query key. Optimistic
// mutations edit cached values in place between snapshot and restore;
// confirmed mutations mark only the affected keys stale so unrelated
// queries keep their cached pages.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

func dweetKey(id string) string {
	return "dweet:" + id
}

func (c *Cache) getPage(key string, page int) *DweetPage {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.stale {
		return nil
	}
	return entry.pages[page]
}

func (c *Cache) putPage(key string, page int, value *DweetPage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.stale {
		entry = &cacheEntry{pages: make(map[int]*DweetPage)}
		c.entries[key] = entry
	}
	entry.pages[page] = value
}

func (c *Cache) getDweet(id string) *models.DweetView {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[dweetKey(id)]
	if !ok || entry.stale {
		return nil
	}
	return entry.dweet
}

func (c *Cache) putDweet(view *models.DweetView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[dweetKey(view.ID)] = &cacheEntry{dweet: view}
}

// snapshot deep-copies the cache so a failed optimistic mutation can be
// rolled back to exactly the pre-mutation state.
func (c *Cache) snapshot() map[string]*cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := make(map[string]*cacheEntry, len(c.entries))
	for key, entry := range c.entries {
		copied[key] = entry.clone()
	}
	return copied
}

func (c *Cache) restore(snapshot map[string]*cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = snapshot
}

func (e *cacheEntry) clone() *cacheEntry {
	copied := &cacheEntry{stale: e.stale}
	if e.dweet != nil {
		copied.dweet = cloneView(e.dweet)
	}
	if e.pages != nil {
		copied.pages = make(map[int]*DweetPage, len(e.pages))
		for n, page := range e.pages {
			pageCopy := &DweetPage{
				Results:      make([]models.DweetView, len(page.Results)),
				Page:         page.Page,
				TotalPages:   page.TotalPages,
				TotalResults: page.TotalResults,
			}
			for i := range page.Results {
				pageCopy.Results[i] = *cloneView(&page.Results[i])
			}
			copied.pages[n] = pageCopy
		}
	}
	return copied
}

func cloneView(view *models.DweetView) *models.DweetView {
	copied := *view
	copied.Likes = append([]string(nil), view.Likes...)
	copied.Redweets = append([]string(nil), view.Redweets...)
	if view.ReplyTo != nil {
		replyTo := *view.ReplyTo
		copied.ReplyTo = &replyTo
	}
	return &copied
}

// likeEffect describes an optimistic engagement edit: which set and which
// direction.
type likeEffect struct {
	add     bool
	redweet bool
}

// applyEngagement edits every cached copy of the dweet to reflect the
// pending toggle.
func (c *Cache) applyEngagement(dweetID, userID string, effect likeEffect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eachCachedCopy(dweetID, func(view *models.DweetView) {
		set := &view.Likes
		if effect.redweet {
			set = &view.Redweets
		}
		if effect.add {
			*set = append(*set, userID)
		} else {
			filtered := make([]string, 0, len(*set))
			for _, id := range *set {
				if id != userID {
					filtered = append(filtered, id)
				}
			}
			*set = filtered
		}
	})
}

// applyRemoval drops the dweet from every cached listing and from its
// single-view entry. Returns the parent id if the cache knew of one, so
// the caller can invalidate the parent's thread and counter.
func (c *Cache) applyRemoval(dweetID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	parentID := ""
	key := dweetKey(dweetID)
	if entry, ok := c.entries[key]; ok {
		if entry.dweet != nil && entry.dweet.ReplyTo != nil {
			parentID = *entry.dweet.ReplyTo
		}
		delete(c.entries, key)
	}

	for _, entry := range c.entries {
		for _, page := range entry.pages {
			filtered := page.Results[:0]
			for i := range page.Results {
				if page.Results[i].ID == dweetID {
					if page.Results[i].ReplyTo != nil {
						parentID = *page.Results[i].ReplyTo
					}
					continue
				}
				filtered = append(filtered, page.Results[i])
			}
			page.Results = filtered
		}
	}

	return parentID
}

// eachCachedCopy visits every cached view of one dweet, in single entries
// and inside list pages. Caller holds the lock.
func (c *Cache) eachCachedCopy(dweetID string, visit func(view *models.DweetView)) {
	for _, entry := range c.entries {
		if entry.dweet != nil && entry.dweet.ID == dweetID {
			visit(entry.dweet)
		}
		for _, page := range entry.pages {
			for i := range page.Results {
				if page.Results[i].ID == dweetID {
					visit(&page.Results[i])
				}
			}
		}
	}
}

// invalidateForEngagement marks stale only the keys a confirmed toggle can
// have changed: the dweet's own entry, every listing that held it, and the
// actor's like/redweet timelines.
func (c *Cache) invalidateForEngagement(dweetID, actorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		switch {
		case key == dweetKey(dweetID):
			entry.stale = true
		case entry.holds(dweetID):
			entry.stale = true
		case keyHasParam(key, "likes", actorID), keyHasParam(key, "redweets", actorID):
			entry.stale = true
		}
	}
}

// invalidateForCreate marks stale the listings a new dweet can appear in:
// the feed, the author's timeline, the unfiltered listing, and the parent
// thread plus the parent's own entry when the dweet is a reply.
func (c *Cache) invalidateForCreate(view *models.DweetView, authorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		switch {
		case key == feedKey:
			entry.stale = true
		case keyHasParam(key, "author", authorID):
			entry.stale = true
		case view.ReplyTo == nil && isTopLevelListKey(key):
			entry.stale = true
		case view.ReplyTo != nil && (keyHasParam(key, "replyTo", *view.ReplyTo) || key == dweetKey(*view.ReplyTo)):
			entry.stale = true
		}
	}
}

// invalidateForRemoval marks stale everything that referenced the removed
// dweet, plus the parent entries whose reply counter changed.
func (c *Cache) invalidateForRemoval(dweetID, parentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		switch {
		case key == dweetKey(dweetID), entry.holds(dweetID):
			entry.stale = true
		case parentID != "" && (key == dweetKey(parentID) || keyHasParam(key, "replyTo", parentID)):
			entry.stale = true
		}
	}
}

// keyHasParam reports whether a list key carries the given filter value.
func keyHasParam(key, name, value string) bool {
	query, ok := strings.CutPrefix(key, "list?")
	if !ok {
		return false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	return values.Get(name) == value
}

// isTopLevelListKey reports whether the key is a listing with no filter,
// i.e. one that shows every new top-level dweet.
func isTopLevelListKey(key string) bool {
	query, ok := strings.CutPrefix(key, "list?")
	if !ok {
		return false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	for _, filter := range []string{"author", "likes", "redweets", "replyTo"} {
		if values.Get(filter) != "" {
			return false
		}
	}
	return true
}

// holds reports whether any cached page of this entry contains the dweet.
func (e *cacheEntry) holds(dweetID string) bool {
	for _, page := range e.pages {
		for i := range page.Results {
			if page.Results[i].ID == dweetID {
				return true
			}
		}
	}
	return false
}
