package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/builder"
	"landingkit/internal/models"
)

func serve(t *testing.T, h *Hub, b *builder.Builder) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "s1", b)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestServeSendsInitialState(t *testing.T) {
	b := builder.New()
	b.AddSection(models.SectionHero)

	conn := serve(t, NewHub(), b)
	m := readMessage(t, conn)
	assert.Equal(t, "state", m.Type)
	require.NotNil(t, m.View)
	assert.Len(t, m.View.Sections, 1)
}

func TestBroadcastOnChange(t *testing.T) {
	b := builder.New()
	h := NewHub()
	conn := serve(t, h, b)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return h.Clients("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	s := b.AddSection(models.SectionFAQ)

	m := readMessage(t, conn)
	require.NotNil(t, m.View)
	require.Len(t, m.View.Sections, 1)
	assert.Equal(t, s.ID, m.View.Sections[0].ID)
	assert.True(t, m.View.CanUndo)
}

func TestCloseSessionDisconnects(t *testing.T) {
	b := builder.New()
	h := NewHub()
	conn := serve(t, h, b)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return h.Clients("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	h.CloseSession("s1")
	assert.Equal(t, 0, h.Clients("s1"))

	m := readMessage(t, conn)
	assert.Equal(t, "closed", m.Type)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestClientLeaveDropsRoom(t *testing.T) {
	b := builder.New()
	h := NewHub()
	conn := serve(t, h, b)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return h.Clients("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.Clients("s1") == 0 }, 2*time.Second, 10*time.Millisecond)

	// No subscriber is left behind.
	b.AddSection(models.SectionHero)
	assert.Equal(t, 0, h.Clients("s1"))
}

func TestCloseUnknownSession(t *testing.T) {
	h := NewHub()
	h.CloseSession("missing")
	h.Shutdown()
	assert.Equal(t, 0, h.Clients("missing"))
}
