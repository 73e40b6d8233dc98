package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BufferSize      int           `env:"BUFFER_SIZE,required=true"`
	PromptBuffer    int           `env:"PROMPT_BUFFER,required=true"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,required=true"`
	LimitMessages   *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`
	CPUThreshold    float64       `env:"CPU_THRESHOLD,required=true"`

	RestartInterval    time.Duration `env:"RESTART_INTERVAL,required=true"`
	AlertFlushInterval time.Duration `env:"ALERT_FLUSH_INTERVAL,required=true"`
	AuthTokenSecret    string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	UploadDir      string `env:"UPLOAD_DIR,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	Host      string `env:"HOST,default=localhost"`
	Port      int    `env:"PORT,default=8080"`
	DebugPort int    `env:"DEBUG_PORT,default=8090"`

	GuestMessageLimit int    `env:"GUEST_MESSAGE_LIMIT,required=true"`
	SnapshotSize      int    `env:"SNAPSHOT_SIZE,required=true"`
	HistorySize       int    `env:"HISTORY_SIZE,required=true"`
	ModeratorName     string `env:"MODERATOR_NAME,required=true"`
	BotName           string `env:"BOT_NAME,required=true"`

	ModerateWordsFile string `env:"MODERATE_WORDS_FILE,required=true"`
	SevereWordsFile   string `env:"SEVERE_WORDS_FILE,required=true"`
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
