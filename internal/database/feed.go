package database

import (
	"errors"
	"fmt"
	"strings"

	"dwitter/internal/models"
)

var (
	ErrBadSortBy = errors.New("unsupported sortBy value")
	ErrBadPage   = errors.New("page and limit must be positive")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is the envelope every paginated view is returned in. The next page
// exists iff Page < TotalPages.
type Page[T any] struct {
	Results      []T `json:"results"`
	Page         int `json:"page"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
}

type PageOptions struct {
	Page   int
	Limit  int
	SortBy string // "createdAt:desc" (default) or "createdAt:asc"
}

func (o *PageOptions) normalize() error {
	if o.Page == 0 {
		o.Page = 1
	}
	if o.Limit == 0 {
		o.Limit = DefaultPageLimit
	}
	if o.Page < 0 || o.Limit < 0 {
		return ErrBadPage
	}
	if o.Limit > MaxPageLimit {
		o.Limit = MaxPageLimit
	}
	return nil
}

// orderExpr maps the public sortBy value onto an ORDER BY expression. The
// dweet id breaks ties so pages never overlap on equal timestamps.
func (o PageOptions) orderExpr() (string, error) {
	switch o.SortBy {
	case "", "createdAt:desc":
		return "d.created DESC, d.id DESC", nil
	case "createdAt:asc":
		return "d.created ASC, d.id ASC", nil
	default:
		return "", ErrBadSortBy
	}
}

// pagedQuery is the generic pagination contract: any view that can count
// its matching rows and fetch one window of them can be paginated.
type pagedQuery[T any] struct {
	count func() (int, error)
	fetch func(limit, offset int) ([]T, error)
}

func runPaged[T any](q pagedQuery[T], opts PageOptions) (*Page[T], error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	total, err := q.count()
	if err != nil {
		return nil, err
	}

	page := &Page[T]{
		Results:      make([]T, 0),
		Page:         opts.Page,
		TotalPages:   (total + opts.Limit - 1) / opts.Limit,
		TotalResults: total,
	}

	if total == 0 {
		return page, nil
	}

	results, err := q.fetch(opts.Limit, (opts.Page-1)*opts.Limit)
	if err != nil {
		return nil, err
	}
	page.Results = results

	return page, nil
}

// Filter is the closed set of list filters. Zero values mean "not set".
// Filters referencing unknown users or dweets are rejected before any
// query runs.
type Filter struct {
	Author   string // dweets authored by this user id
	Likes    string // dweets whose liker set contains this user id
	Redweets string // dweets whose redweeter set contains this user id
	ReplyTo  string // replies to this dweet id; empty means top-level only
}

type FeedService struct {
	db *Database
}

func NewFeedService(db *Database) *FeedService {
	return &FeedService{db: db}
}

// List returns one page of dweets matching the filter, newest first by
// default. Replies are excluded unless the filter asks for them.
func (fs *FeedService) List(filter Filter, opts PageOptions) (*Page[models.DweetView], error) {
	if err := fs.validateFilter(filter); err != nil {
		return nil, err
	}

	where, args := fs.buildWhere(filter)
	return fs.listWhere(where, args, opts)
}

// Feed returns the following feed for the actor: top-level dweets authored
// by the actor or by anyone the actor follows, newest first.
func (fs *FeedService) Feed(actorID string, opts PageOptions) (*Page[models.DweetView], error) {
	profiles := NewProfileService(fs.db)
	following, err := profiles.FollowingIDs(actorID)
	if err != nil {
		return nil, err
	}

	authors := append(following, actorID)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(authors)), ", ")

	where := fmt.Sprintf("d.reply_to IS NULL AND d.author_id IN (%s)", placeholders)
	args := make([]any, 0, len(authors))
	for _, id := range authors {
		args = append(args, id)
	}

	return fs.listWhere(where, args, opts)
}

// GetDweetView loads a single dweet with its author projection and
// engagement sets resolved.
func (fs *FeedService) GetDweetView(id string) (*models.DweetView, error) {
	page, err := fs.listWhere("d.id = ?", []any{id}, PageOptions{Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, ErrDweetNotFound
	}
	view := page.Results[0]
	return &view, nil
}

func (fs *FeedService) listWhere(where string, args []any, opts PageOptions) (*Page[models.DweetView], error) {
	order, err := opts.orderExpr()
	if err != nil {
		return nil, err
	}

	query := pagedQuery[models.DweetView]{
		count: func() (int, error) {
			var count int
			countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM dweets d WHERE %s`, where)
			err := fs.db.DBConn.QueryRow(countQuery, args...).Scan(&count)
			return count, err
		},
		fetch: func(limit, offset int) ([]models.DweetView, error) {
			fetchQuery := fmt.Sprintf(`
SELECT d.id, d.text, d.reply_to, d.replies_count, d.edited, d.created, d.updated,
       u.id, u.name, u.username, u.avatar
FROM dweets d
JOIN users u ON d.author_id = u.id
WHERE %s
ORDER BY %s
LIMIT ? OFFSET ?`, where, order)

			rows, err := fs.db.DBConn.Query(fetchQuery, append(args, limit, offset)...)
			if err != nil {
				return nil, err
			}
			defer rows.Close()

			views := make([]models.DweetView, 0)
			for rows.Next() {
				var view models.DweetView
				err := rows.Scan(&view.ID, &view.Text, &view.ReplyTo, &view.RepliesCount,
					&view.Edited, &view.Created, &view.Updated,
					&view.Author.ID, &view.Author.Name, &view.Author.Username, &view.Author.Avatar)
				if err != nil {
					return nil, err
				}
				view.Likes = make([]string, 0)
				view.Redweets = make([]string, 0)
				views = append(views, view)
			}
			if err = rows.Err(); err != nil {
				return nil, err
			}

			if err := fs.attachEngagement(views); err != nil {
				return nil, err
			}

			return views, nil
		},
	}

	return runPaged(query, opts)
}

// buildWhere translates the filter into a WHERE clause. Engagement filters
// read the dweet-side sets, which are the source of truth.
func (fs *FeedService) buildWhere(filter Filter) (string, []any) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if filter.ReplyTo != "" {
		conds = append(conds, "d.reply_to = ?")
		args = append(args, filter.ReplyTo)
	} else {
		conds = append(conds, "d.reply_to IS NULL")
	}
	if filter.Author != "" {
		conds = append(conds, "d.author_id = ?")
		args = append(args, filter.Author)
	}
	if filter.Likes != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM dweet_likes dl WHERE dl.dweet_id = d.id AND dl.user_id = ?)")
		args = append(args, filter.Likes)
	}
	if filter.Redweets != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM dweet_redweets dr WHERE dr.dweet_id = d.id AND dr.user_id = ?)")
		args = append(args, filter.Redweets)
	}

	return strings.Join(conds, " AND "), args
}

func (fs *FeedService) validateFilter(filter Filter) error {
	users := NewUserService(fs.db)
	for _, userID := range []string{filter.Author, filter.Likes, filter.Redweets} {
		if userID == "" {
			continue
		}
		exists, err := users.UserExists(userID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}

	if filter.ReplyTo != "" {
		exists, err := NewDweetService(fs.db).DweetExists(filter.ReplyTo)
		if err != nil {
			return err
		}
		if !exists {
			return ErrDweetNotFound
		}
	}

	return nil
}

// attachEngagement fills the likes/redweets id sets for one page of views
// with a single query per set instead of one per row.
func (fs *FeedService) attachEngagement(views []models.DweetView) error {
	if len(views) == 0 {
		return nil
	}

	index := make(map[string]*models.DweetView, len(views))
	args := make([]any, 0, len(views))
	for i := range views {
		index[views[i].ID] = &views[i]
		args = append(args, views[i].ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(views)), ", ")

	sets := []struct {
		table  string
		append func(view *models.DweetView, userID string)
	}{
		{"dweet_likes", func(view *models.DweetView, userID string) { view.Likes = append(view.Likes, userID) }},
		{"dweet_redweets", func(view *models.DweetView, userID string) { view.Redweets = append(view.Redweets, userID) }},
	}

	for _, set := range sets {
		query := fmt.Sprintf(
			`SELECT dweet_id, user_id FROM %s WHERE dweet_id IN (%s) ORDER BY created`,
			set.table, placeholders)

		rows, err := fs.db.DBConn.Query(query, args...)
		if err != nil {
			return err
		}

		for rows.Next() {
			var dweetID, userID string
			if err := rows.Scan(&dweetID, &userID); err != nil {
				rows.Close()
				return err
			}
			if view, ok := index[dweetID]; ok {
				set.append(view, userID)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}

	return nil
}
