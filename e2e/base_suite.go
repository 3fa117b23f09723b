package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"social-chat/app"
	"social-chat/internal"
	"social-chat/services"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const (
	password    = "Sup3r-Secret!pw"
	waitTimeout = 5 * time.Second
	tick        = 20 * time.Millisecond
)

// BaseChatSuite runs the whole server in process on temporary stores.
type BaseChatSuite struct {
	suite.Suite
	Config Config

	app    *app.App
	server *httptest.Server
	health *bufconn.Listener
}

func (s *BaseChatSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	dir := s.T().TempDir()
	cfg := internal.Config{
		BadgerFilepath:       filepath.Join(dir, "badger"),
		BlugeFilepath:        filepath.Join(dir, "bluge"),
		MediaRoot:            filepath.Join(dir, "media"),
		AuthSecret:           "e2e-secret",
		AuthTokenDuration:    time.Hour,
		AllowedOrigins:       "*",
		SinkTimeout:          time.Second,
		ConnectionBufferSize: 16,
		PingPeriod:           time.Hour,
		MaxFrameSize:         1 << 20,
		CharReplacement:      "*",
		RestartInterval:      100 * time.Millisecond,
		MetricInterval:       time.Minute,
		ValueLogGCPeriod:     time.Hour,
		ShutdownTimeout:      time.Second,
	}

	s.app, err = app.New(cfg, logs.GetLoggerFromString(s.Config.LogLevel))
	s.Require().NoError(err)
	s.server = httptest.NewServer(s.app.Handler())

	s.health = bufconn.Listen(1024 * 1024)
	go func() { _ = s.app.Health().Serve(s.health) }()
	s.app.Health().SetServing(true)
}

func (s *BaseChatSuite) TearDownSuite() {
	if s.server != nil {
		s.server.CloseClientConnections()
		s.server.Close()
	}
	if s.app != nil {
		s.app.Health().Stop()
		s.Require().NoError(s.app.Close())
	}
}

// Step prints a colorized header for a scenario step in logs.
func (s *BaseChatSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call sends a JSON request and decodes the JSON response into out when out is not nil.
func (s *BaseChatSuite) Call(method, path, token string, body, out any) int {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf("HTTP %s %s [%d]\n%s", method, path, resp.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 && resp.StatusCode < http.StatusBadRequest {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

func (s *BaseChatSuite) Register(username string) services.Credentials {
	var credentials services.Credentials
	code := s.Call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, &credentials)
	s.Require().Equal(http.StatusCreated, code)
	s.Require().NotEmpty(credentials.Token)
	return credentials
}

// Dial opens a WebSocket on path, authenticated with token when not empty.
func (s *BaseChatSuite) Dial(path, token string) *websocket.Conn {
	u, err := url.Parse(strings.Replace(s.server.URL, "http", "ws", 1) + path)
	s.Require().NoError(err)
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	ws, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "dialing "+path)
	s.T().Cleanup(func() { _ = ws.Close() })
	return ws
}

// DialJoined dials and waits until the server registered the connection.
func (s *BaseChatSuite) DialJoined(path, token string) *websocket.Conn {
	before := s.app.Monitoring().Snapshot().Connections
	ws := s.Dial(path, token)
	s.Require().Eventually(func() bool {
		return s.app.Monitoring().Snapshot().Connections > before
	}, waitTimeout, tick)
	return ws
}

// Hangup closes ws and waits until the server dropped the connection.
func (s *BaseChatSuite) Hangup(ws *websocket.Conn) {
	before := s.app.Monitoring().Snapshot().Connections
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.Require().NoError(ws.Close())
	s.Require().Eventually(func() bool {
		return s.app.Monitoring().Snapshot().Connections < before
	}, waitTimeout, tick)
}

// ReadFrame decodes the next text frame of ws into a generic map.
func (s *BaseChatSuite) ReadFrame(ws *websocket.Conn) map[string]any {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(waitTimeout)))
	_, payload, err := ws.ReadMessage()
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf("WS frame\n%s", payload)
	}
	var frame map[string]any
	s.Require().NoError(json.Unmarshal(payload, &frame))
	return frame
}

// ExpectClose reads until the server closes ws and returns the close code.
func (s *BaseChatSuite) ExpectClose(ws *websocket.Conn) int {
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(waitTimeout)))
	_, _, err := ws.ReadMessage()
	var closeErr *websocket.CloseError
	s.Require().ErrorAs(err, &closeErr)
	return closeErr.Code
}

// WithHealth provides a health client over an in-memory gRPC connection.
func (s *BaseChatSuite) WithHealth(name string, fn func(ctx context.Context, client grpc_health_v1.HealthClient)) {
	s.Step(name)
	marshaler := protojson.MarshalOptions{UseProtoNames: true, EmitUnpopulated: true}

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.health.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn,
			invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)
			line := fmt.Sprintf("GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.DebugJSON && err == nil {
				line += "\n" + marshaler.Format(reply.(proto.Message))
			}
			s.T().Log(line)
			return err
		}),
	)
	s.Require().NoError(err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	fn(ctx, grpc_health_v1.NewHealthClient(conn))
}

func roomKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat_%d_%d", a, b)
}
