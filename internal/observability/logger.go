package observability

import (
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/rs/zerolog"
)

// InitLogger returns the process logger tagged with app.
func InitLogger(app string) zerolog.Logger {
	return logs.Logger().With().Str("app", app).Logger()
}
