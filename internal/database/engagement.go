package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyLiked     = errors.New("user already likes a dweet")
	ErrNotLiked         = errors.New("user did not like the dweet yet")
	ErrAlreadyRedweeted = errors.New("user already redweeted a dweet")
	ErrNotRedweeted     = errors.New("user did not redweet the dweet yet")
	ErrEngagementWrite  = errors.New("engagement write failed")
)

// engagementPair names the two tables holding one pairing: the actor's
// ledger side and the dweet side. The dweet side is the source of truth.
type engagementPair struct {
	ledgerTable string
	dweetTable  string
	errAlready  error
	errMissing  error
}

var (
	likePair = engagementPair{
		ledgerTable: "profile_likes",
		dweetTable:  "dweet_likes",
		errAlready:  ErrAlreadyLiked,
		errMissing:  ErrNotLiked,
	}
	redweetPair = engagementPair{
		ledgerTable: "profile_redweets",
		dweetTable:  "dweet_redweets",
		errAlready:  ErrAlreadyRedweeted,
		errMissing:  ErrNotRedweeted,
	}
)

// EngagementService coordinates every state change that must touch both a
// dweet's engagement set and the acting user's ledger. There is no
// transaction across the two tables: the ledger side is written first, the
// dweet side second, so a failure between the two leaves a divergence that
// Reconcile can detect and repair from the dweet side.
type EngagementService struct {
	db *Database
}

func NewEngagementService(db *Database) *EngagementService {
	return &EngagementService{db: db}
}

// Like records that actor likes the dweet. Conflict if the pairing exists.
func (es *EngagementService) Like(actorID, dweetID string) error {
	return es.toggleOn(actorID, dweetID, likePair)
}

// Unlike removes the like pairing. Conflict if it does not exist.
func (es *EngagementService) Unlike(actorID, dweetID string) error {
	return es.toggleOff(actorID, dweetID, likePair)
}

// Redweet records that actor redistributed the dweet.
func (es *EngagementService) Redweet(actorID, dweetID string) error {
	return es.toggleOn(actorID, dweetID, redweetPair)
}

// UnRedweet removes the redweet pairing.
func (es *EngagementService) UnRedweet(actorID, dweetID string) error {
	return es.toggleOff(actorID, dweetID, redweetPair)
}

// LikesIt reports the ledger-side like state.
func (es *EngagementService) LikesIt(actorID, dweetID string) (bool, error) {
	return es.ledgerHas(actorID, dweetID, likePair)
}

// Redweeted reports the ledger-side redweet state.
func (es *EngagementService) Redweeted(actorID, dweetID string) (bool, error) {
	return es.ledgerHas(actorID, dweetID, redweetPair)
}

func (es *EngagementService) toggleOn(actorID, dweetID string, pair engagementPair) error {
	if err := es.checkDweet(dweetID); err != nil {
		return err
	}

	has, err := es.ledgerHas(actorID, dweetID, pair)
	if err != nil {
		return err
	}
	if has {
		return pair.errAlready
	}

	now := time.Now()

	// Ledger first, dweet side second. Strict order makes a torn write
	// detectable: a dweet-side row without its ledger twin never occurs,
	// only the reverse.
	query := fmt.Sprintf(`INSERT INTO %s (user_id, dweet_id, created) VALUES (?, ?, ?)`, pair.ledgerTable)
	if _, err := es.db.DBConn.Exec(query, actorID, dweetID, now); err != nil {
		return fmt.Errorf("%w: %v", ErrEngagementWrite, err)
	}

	query = fmt.Sprintf(`INSERT INTO %s (dweet_id, user_id, created) VALUES (?, ?, ?)`, pair.dweetTable)
	if _, err := es.db.DBConn.Exec(query, dweetID, actorID, now); err != nil {
		return fmt.Errorf("%w: dweet side after ledger side: %v", ErrEngagementWrite, err)
	}

	return nil
}

func (es *EngagementService) toggleOff(actorID, dweetID string, pair engagementPair) error {
	if err := es.checkDweet(dweetID); err != nil {
		return err
	}

	has, err := es.ledgerHas(actorID, dweetID, pair)
	if err != nil {
		return err
	}
	if !has {
		return pair.errMissing
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND dweet_id = ?`, pair.ledgerTable)
	if _, err := es.db.DBConn.Exec(query, actorID, dweetID); err != nil {
		return fmt.Errorf("%w: %v", ErrEngagementWrite, err)
	}

	query = fmt.Sprintf(`DELETE FROM %s WHERE dweet_id = ? AND user_id = ?`, pair.dweetTable)
	if _, err := es.db.DBConn.Exec(query, dweetID, actorID); err != nil {
		return fmt.Errorf("%w: dweet side after ledger side: %v", ErrEngagementWrite, err)
	}

	return nil
}

func (es *EngagementService) ledgerHas(actorID, dweetID string, pair engagementPair) (bool, error) {
	var one int
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE user_id = ? AND dweet_id = ?`, pair.ledgerTable)
	err := es.db.DBConn.QueryRow(query, actorID, dweetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (es *EngagementService) checkDweet(dweetID string) error {
	var one int
	err := es.db.DBConn.QueryRow(`SELECT 1 FROM dweets WHERE id = ?`, dweetID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrDweetNotFound
	}
	return err
}

// Reconcile rebuilds the ledger-side tables from the dweet-side tables,
// treating the dweet side as ground truth. Intended as an operator sweep
// after a suspected torn dual-write. Returns the number of rows repaired.
func (es *EngagementService) Reconcile() (int, error) {
	repaired := 0

	for _, pair := range []engagementPair{likePair, redweetPair} {
		insert := fmt.Sprintf(`
INSERT INTO %[1]s (user_id, dweet_id, created)
SELECT d.user_id, d.dweet_id, d.created
FROM %[2]s d
WHERE NOT EXISTS (SELECT 1 FROM %[1]s l WHERE l.user_id = d.user_id AND l.dweet_id = d.dweet_id)`,
			pair.ledgerTable, pair.dweetTable)

		result, err := es.db.DBConn.Exec(insert)
		if err != nil {
			return repaired, fmt.Errorf("%w: %v", ErrEngagementWrite, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return repaired, err
		}
		repaired += int(n)

		remove := fmt.Sprintf(`
DELETE FROM %[1]s
WHERE NOT EXISTS (SELECT 1 FROM %[2]s d WHERE d.user_id = %[1]s.user_id AND d.dweet_id = %[1]s.dweet_id)`,
			pair.ledgerTable, pair.dweetTable)

		result, err = es.db.DBConn.Exec(remove)
		if err != nil {
			return repaired, fmt.Errorf("%w: %v", ErrEngagementWrite, err)
		}
		n, err = result.RowsAffected()
		if err != nil {
			return repaired, err
		}
		repaired += int(n)
	}

	return repaired, nil
}
