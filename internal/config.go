package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	HTTPPort int    `env:"HTTP_PORT,default=8000"`
	GRPCPort int    `env:"GRPC_PORT,default=50051"`
	// DEBUG_PORT enables the badger inspector when set
	DebugPort int `env:"DEBUG_PORT"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	MediaRoot      string `env:"MEDIA_ROOT,default=./media"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=*"`

	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	PingPeriod           time.Duration `env:"PING_PERIOD,default=54s"`
	MaxFrameSize         int           `env:"MAX_FRAME_SIZE,default=16777216"`
	VerifyAttachmentType bool          `env:"VERIFY_ATTACHMENT_TYPE,default=false"`

	CensoredWordsDir string `env:"CENSORED_WORDS_DIR"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=1m"`
	ValueLogGCPeriod time.Duration `env:"VALUE_LOG_GC_PERIOD,default=10m"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
