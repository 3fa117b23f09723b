package internal

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestInspectHandler(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	// Given one message and one unrelated key
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("msg:chat_1_2:1714557600000000000:00000000000000000001"), []byte("abc")); err != nil {
			return err
		}
		return txn.Set([]byte("user:name:alice"), []byte("1"))
	}))
	stats := func() map[string]any { return map[string]any{"connections": 3} }
	handler := InspectHandler(db, nil, stats, slog.Default())

	// When scanning the message prefix
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?prefix=msg:", nil))

	// Then only the message is listed
	req.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	req.Contains(body, "msg:chat_1_2")
	req.Contains(body, "Size: 3 bytes")
	req.Contains(body, "connections: 3")
	req.NotContains(body, "user:name:alice")
}

func TestDefaultMapper(t *testing.T) {
	req := require.New(t)

	row := DefaultMapper("msg:chat_1_2:0:00000000000000000007", []byte("x"))
	req.Equal("msg:chat_1_2", row.Namespace)
	req.Equal("00:00:00", row.Timestamp)

	row = DefaultMapper("post:00000000000000000001", nil)
	req.Equal("post", row.Namespace)
	req.Equal("--:--:--", row.Timestamp)
}
