package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"dexchat/pkg/logger"
	"dexchat/pkg/models"
)

var (
	// ErrNotFound is returned when a session or message does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrOwnerMismatch is returned when a write would put a second owner's
	// message into an existing session.
	ErrOwnerMismatch = errors.New("store: session owned by another user")
)

var db *pebble.DB

// seq reduces key collisions when messages share a nanosecond timestamp.
var seq uint64

// sessionLocks serializes writes that read and then commit session-level
// state (meta, owner marker). Striped by session id so unrelated sessions
// never contend; within one session, the owner check and the batch commit
// happen under the same lock.
var sessionLocks [64]sync.Mutex

func sessionLock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &sessionLocks[h.Sum32()%uint32(len(sessionLocks))]
}

// Key layout:
//
//	chat:<sessionID>:msg:<unix_nano_padded>-<seq>  -> message JSON (creation order)
//	chat:<sessionID>:meta                          -> session meta JSON
//	msgidx:<messageID>                             -> row key of the message
//	owner:<ownerID>:chat:<sessionID>               -> "" (per-owner listing marker)
type sessionMeta struct {
	SessionID string `json:"session_id"`
	Owner     string `json:"user_id"`
	CreatedTS int64  `json:"created_ts"`
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func rowKey(sessionID string, ts int64, s uint64) []byte {
	return []byte(fmt.Sprintf("chat:%s:msg:%020d-%012d", sessionID, ts, s))
}

func metaKey(sessionID string) []byte {
	return []byte("chat:" + sessionID + ":meta")
}

func idxKey(msgID string) []byte {
	return []byte("msgidx:" + msgID)
}

func ownerKey(owner, sessionID string) []byte {
	return []byte("owner:" + owner + ":chat:" + sessionID)
}

func msgPrefix(sessionID string) []byte {
	return []byte("chat:" + sessionID + ":msg:")
}

func getValue(key []byte) ([]byte, error) {
	v, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

func getMeta(sessionID string) (sessionMeta, error) {
	var m sessionMeta
	v, err := getValue(metaKey(sessionID))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(v, &m); err != nil {
		return m, fmt.Errorf("invalid session meta: %w", err)
	}
	return m, nil
}

// CreateMessage persists one completed turn as a single new row. The store
// assigns the id and timestamps. The first message of a session fixes the
// session's owner; later writes by a different owner are rejected.
// The whole write (row, id index, session meta, owner marker) is committed
// in one batch, so a turn is either fully persisted or not at all.
func CreateMessage(owner, sessionID, question string, context json.RawMessage, answer string, tools, clientActions []string) (models.Message, error) {
	var msg models.Message
	if db == nil {
		return msg, fmt.Errorf("pebble not opened; call store.Open first")
	}

	// The owner check and the commit must not interleave with another
	// first-write to the same session, or two owners could both claim it.
	mu := sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	meta, err := getMeta(sessionID)
	switch {
	case err == nil:
		if meta.Owner != owner {
			return msg, ErrOwnerMismatch
		}
	case errors.Is(err, ErrNotFound):
		meta = sessionMeta{}
	default:
		return msg, err
	}

	now := time.Now().UTC()
	ts := now.UnixNano()
	s := atomic.AddUint64(&seq, 1)
	key := rowKey(sessionID, ts, s)

	msg = models.Message{
		ID:            uuid.NewString(),
		Owner:         owner,
		Session:       sessionID,
		Question:      question,
		Context:       context,
		Answer:        answer,
		Tools:         tools,
		ClientActions: clientActions,
		CreatedAt:     now.UnixMilli(),
		UpdatedAt:     now.UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return msg, fmt.Errorf("failed to marshal message: %w", err)
	}

	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(key, data, nil); err != nil {
		return msg, err
	}
	if err := b.Set(idxKey(msg.ID), key, nil); err != nil {
		return msg, err
	}
	if meta.SessionID == "" {
		nm := sessionMeta{SessionID: sessionID, Owner: owner, CreatedTS: now.UnixMilli()}
		mb, _ := json.Marshal(nm)
		if err := b.Set(metaKey(sessionID), mb, nil); err != nil {
			return msg, err
		}
		if err := b.Set(ownerKey(owner, sessionID), []byte{}, nil); err != nil {
			return msg, err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("save_message_failed", "session", sessionID, "key", string(key), "error", err)
		return msg, err
	}
	logger.Info("message_saved", "session", sessionID, "msg_id", msg.ID)
	return msg, nil
}

// GetMessage returns the message with the given id.
func GetMessage(id string) (models.Message, error) {
	var msg models.Message
	if db == nil {
		return msg, fmt.Errorf("pebble not opened; call store.Open first")
	}
	key, err := getValue(idxKey(id))
	if err != nil {
		return msg, err
	}
	v, err := getValue(key)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(v, &msg); err != nil {
		return msg, fmt.Errorf("invalid stored message: %w", err)
	}
	return msg, nil
}

// UpdateMessage patches the question and/or answer of an existing message
// and bumps its update timestamp. Nil fields are left unchanged.
func UpdateMessage(id string, question, answer *string) (models.Message, error) {
	var msg models.Message
	if db == nil {
		return msg, fmt.Errorf("pebble not opened; call store.Open first")
	}
	key, err := getValue(idxKey(id))
	if err != nil {
		return msg, err
	}
	v, err := getValue(key)
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(v, &msg); err != nil {
		return msg, fmt.Errorf("invalid stored message: %w", err)
	}
	if question != nil {
		msg.Question = *question
	}
	if answer != nil {
		msg.Answer = *answer
	}
	msg.UpdatedAt = time.Now().UTC().UnixMilli()
	nb, err := json.Marshal(msg)
	if err != nil {
		return msg, fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := db.Set(key, nb, pebble.Sync); err != nil {
		logger.Error("update_message_failed", "msg_id", id, "error", err)
		return msg, err
	}
	logger.Info("message_updated", "msg_id", id)
	return msg, nil
}

// DeleteMessage removes a message and its id index. Deleting the last
// message of a session also removes the session meta and owner marker, so
// the session drops out of listings.
func DeleteMessage(id string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	msg, err := GetMessage(id)
	if err != nil {
		return err
	}

	// Row delete and session cleanup commit in one batch under the session
	// lock, so two deletes racing over the last rows cannot leave a ghost
	// meta or owner marker behind.
	mu := sessionLock(msg.Session)
	mu.Lock()
	defer mu.Unlock()

	key, err := getValue(idxKey(id))
	if err != nil {
		return err
	}
	remaining, err := countMessagesExcluding(msg.Session, key)
	if err != nil {
		return err
	}

	b := db.NewBatch()
	defer b.Close()
	if err := b.Delete(key, nil); err != nil {
		return err
	}
	if err := b.Delete(idxKey(id), nil); err != nil {
		return err
	}
	if remaining == 0 {
		if err := b.Delete(metaKey(msg.Session), nil); err != nil {
			return err
		}
		if err := b.Delete(ownerKey(msg.Owner, msg.Session), nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("delete_message_failed", "msg_id", id, "error", err)
		return err
	}
	if remaining == 0 {
		logger.Info("session_emptied", "session", msg.Session)
	}
	logger.Info("message_deleted", "msg_id", id, "session", msg.Session)
	return nil
}

// countMessagesExcluding counts a session's rows, skipping the row at the
// given key.
func countMessagesExcluding(sessionID string, skip []byte) (int, error) {
	prefix := msgPrefix(sessionID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	n := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if bytes.Equal(iter.Key(), skip) {
			continue
		}
		n++
	}
	return n, iter.Error()
}

// ListMessages returns all messages of a session in creation order.
func ListMessages(sessionID string) ([]models.Message, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := msgPrefix(sessionID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Message
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("invalid stored message: %w", err)
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// GetSession returns the aggregate summary of a session, or ErrNotFound if
// the session has no messages.
func GetSession(sessionID string) (models.SessionSummary, error) {
	var sum models.SessionSummary
	if db == nil {
		return sum, fmt.Errorf("pebble not opened; call store.Open first")
	}
	meta, err := getMeta(sessionID)
	if err != nil {
		return sum, err
	}
	msgs, err := ListMessages(sessionID)
	if err != nil {
		return sum, err
	}
	if len(msgs) == 0 {
		return sum, ErrNotFound
	}
	sum = models.SessionSummary{
		SessionID:     sessionID,
		Owner:         meta.Owner,
		MessageCount:  len(msgs),
		LastMessageAt: msgs[len(msgs)-1].CreatedAt,
		FirstQuestion: msgs[0].Question,
	}
	return sum, nil
}

// SessionOwner returns the owner of a session, or ErrNotFound.
func SessionOwner(sessionID string) (string, error) {
	meta, err := getMeta(sessionID)
	if err != nil {
		return "", err
	}
	return meta.Owner, nil
}

// ListSessions returns the owner's session summaries ordered by latest
// message time descending.
func ListSessions(owner string) ([]models.SessionSummary, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("owner:" + owner + ":chat:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var ids []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		ids = append(ids, string(iter.Key()[len(prefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	out := make([]models.SessionSummary, 0, len(ids))
	for _, sid := range ids {
		sum, err := GetSession(sid)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageAt > out[j].LastMessageAt
	})
	return out, nil
}

// DeleteSession removes a session and all of its messages.
func DeleteSession(sessionID string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	mu := sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	meta, err := getMeta(sessionID)
	if err != nil {
		return err
	}
	msgs, err := ListMessages(sessionID)
	if err != nil {
		return err
	}
	b := db.NewBatch()
	defer b.Close()
	prefix := msgPrefix(sessionID)
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		k := append([]byte(nil), iter.Key()...)
		if err := b.Delete(k, nil); err != nil {
			_ = iter.Close()
			return err
		}
	}
	if err := iter.Close(); err != nil {
		return err
	}
	for _, m := range msgs {
		if err := b.Delete(idxKey(m.ID), nil); err != nil {
			return err
		}
	}
	if err := b.Delete(metaKey(sessionID), nil); err != nil {
		return err
	}
	if err := b.Delete(ownerKey(meta.Owner, sessionID), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("delete_session_failed", "session", sessionID, "error", err)
		return err
	}
	logger.Info("session_deleted", "session", sessionID, "messages", len(msgs))
	return nil
}

// ListSessionIDs returns every session id in the store, regardless of owner.
// Used by retention sweeps.
func ListSessionIDs() ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	prefix := []byte("chat:")
	suffix := []byte(":meta")
	var ids []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		k := iter.Key()
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		if !bytes.HasSuffix(k, suffix) {
			continue
		}
		ids = append(ids, string(k[len(prefix):len(k)-len(suffix)]))
	}
	return ids, iter.Error()
}
