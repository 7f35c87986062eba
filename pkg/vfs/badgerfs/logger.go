package badgerfs

import (
	"strings"

	"github.com/velin-dev/velin/internal/logger"
)

// badgerLogger routes Badger's internal logging through our logger.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Errorf("badger: "+strings.TrimRight(format, "\n"), args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warnf("badger: "+strings.TrimRight(format, "\n"), args...)
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debugf("badger: "+strings.TrimRight(format, "\n"), args...)
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debugf("badger: "+strings.TrimRight(format, "\n"), args...)
}
