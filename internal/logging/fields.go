package logging

import "fmt"

// Fields is a small ordered set of key/value pairs appended to a log line.
// It exists because the dtls and srtp packages frequently want to attach a
// connection or SSRC identifier to a message without building a format
// string by hand at every call site.
type Fields []Field

type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// render appends " key=value key2=value2" to buf.
func (fs Fields) render(buf *buffer) {
	for _, f := range fs {
		fmt.Fprintf(buf, " %s=%v", f.Key, f.Value)
	}
}

// WithFields logs a message at the given level with structured fields
// appended after the formatted message.
func (log *Logger) WithFields(level Level, fields Fields, format string, a ...interface{}) {
	if level > log.Level {
		return
	}
	msg := fmt.Sprintf(format, a...)
	buf := buffer(msg)
	fields.render(&buf)
	log.Log(level, 1, "%s", string(buf))
}
