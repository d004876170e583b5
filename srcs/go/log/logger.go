package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vislab/jobpool/srcs/go/config"
	"github.com/vislab/jobpool/srcs/go/utils/xterm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	Debug = zapcore.DebugLevel
	Info  = zapcore.InfoLevel
	Warn  = zapcore.WarnLevel
	Error = zapcore.ErrorLevel
)

var std = New()

const (
	ShowTimestamp = 1 << iota
)

// Logger is a printf style logger on top of zap.
type Logger struct {
	sync.Mutex
	w     io.Writer
	t0    time.Time
	level zap.AtomicLevel
	flags uint32
	sugar *zap.SugaredLogger
}

func New() *Logger {
	level := zap.NewAtomicLevelAt(Info)
	if lvl, err := zapcore.ParseLevel(config.LogLevel); err == nil {
		level.SetLevel(lvl)
	}
	l := &Logger{
		w:     os.Stdout,
		t0:    time.Now(),
		level: level,
	}
	if config.LogTimestamp {
		l.flags = ShowTimestamp
	}
	l.rebuild()
	return l
}

func fmtDuration(d time.Duration) string {
	n := int64(d / time.Second)

	ss := n % 60
	n /= 60

	mm := n % 60
	n /= 60

	hh := n % 24
	n /= 24

	ns := int64(d % time.Second)

	return fmt.Sprintf("%dd %02d:%02d:%02d %6.2fms", n, hh, mm, ss, float64(ns)/float64(time.Millisecond))
}

// levelEncoder colors errors only when the log goes to a terminal.
func levelEncoder(colored bool) zapcore.LevelEncoder {
	paint := func(s string) string { return s }
	if colored {
		paint = xterm.Warn.S
	}
	return func(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch lvl {
		case zapcore.DebugLevel:
			enc.AppendString("[D]")
		case zapcore.InfoLevel:
			enc.AppendString("[I]")
		case zapcore.WarnLevel:
			enc.AppendString("[W]")
		case zapcore.ErrorLevel:
			enc.AppendString(paint("[E]"))
		default:
			enc.AppendString(paint("[F]"))
		}
	}
}

// must hold l.Mutex or be called before l is shared
func (l *Logger) rebuild() {
	ec := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      levelEncoder(xterm.IsTerminal(l.w)),
		ConsoleSeparator: " ",
	}
	if l.flags&ShowTimestamp != 0 {
		t0 := l.t0
		ec.TimeKey = "t"
		ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + fmtDuration(t.Sub(t0)) + "]")
		}
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(l.w)), l.level)
	l.sugar = zap.New(core).Sugar()
}

func (l *Logger) logger() *zap.SugaredLogger {
	l.Lock()
	defer l.Unlock()
	return l.sugar
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logger().Debugf(format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.logger().Infof(format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logger().Warnf(format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logger().Errorf(format, v...)
}

func (l *Logger) Exitf(format string, v ...interface{}) {
	l.logger().Fatalf(format, v...)
}

func (l *Logger) SetOutput(w io.Writer) {
	l.Lock()
	defer l.Unlock()
	l.w = w
	l.rebuild()
}

func (l *Logger) SetFlags(fs ...uint32) {
	var flags uint32
	for _, f := range fs {
		flags |= f
	}
	l.Lock()
	defer l.Unlock()
	l.flags = flags
	l.rebuild()
}

func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level)
}

// Sync flushes buffered entries, call it before exit.
func (l *Logger) Sync() error {
	return l.logger().Sync()
}

var (
	Debugf    = std.Debugf
	Infof     = std.Infof
	Warnf     = std.Warnf
	Errorf    = std.Errorf
	Exitf     = std.Exitf
	SetFlags  = std.SetFlags
	SetOutput = std.SetOutput
	SetLevel  = std.SetLevel
	Sync      = std.Sync
)
