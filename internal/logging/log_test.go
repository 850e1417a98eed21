package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	prev := Get().GetLevel()
	defer Get().SetLevel(prev)

	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"error", logrus.ErrorLevel},
		{"WARN", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{" info ", logrus.InfoLevel},
		{"off", logrus.PanicLevel},
		{"debug", logrus.DebugLevel},
		{"bogus", logrus.DebugLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.in)
		assert.Equal(t, tt.want, Get().GetLevel(), "SetLevel(%q)", tt.in)
	}
}

func TestFor_TagsPackage(t *testing.T) {
	l := Get()
	prevLevel, prevOut := l.GetLevel(), l.Out
	defer func() {
		l.SetLevel(prevLevel)
		l.SetOutput(prevOut)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")

	For("config").Info("hello")
	assert.Contains(t, buf.String(), "pkg=config")
	assert.Contains(t, buf.String(), "hello")
}
