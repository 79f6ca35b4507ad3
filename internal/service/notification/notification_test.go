package notification

import (
	"errors"
	"testing"

	"github.com/lightit/patientreg/pkg/logs"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		wantErr error
	}{
		{name: "mail channel is supported", channel: ChannelMail},
		{name: "sms channel fails at selection", channel: ChannelSMS, wantErr: &ErrChannelNotImplemented{}},
		{name: "unknown channel is rejected", channel: Channel("pigeon"), wantErr: &ErrUnknownChannel{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.channel, nil, logs.Default())

			switch tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("New(%q) failed: %v", tt.channel, err)
				}
				if n == nil {
					t.Fatal("expected a notifier")
				}
			case *ErrChannelNotImplemented:
				var got *ErrChannelNotImplemented
				if !errors.As(err, &got) {
					t.Fatalf("expected ErrChannelNotImplemented, got %v", err)
				}
				if got.Channel != tt.channel {
					t.Errorf("Channel = %q, want %q", got.Channel, tt.channel)
				}
			case *ErrUnknownChannel:
				var got *ErrUnknownChannel
				if !errors.As(err, &got) {
					t.Fatalf("expected ErrUnknownChannel, got %v", err)
				}
			}
		})
	}
}

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "hello", want: "<p>hello</p>"},
		{name: "newlines become breaks", in: "a\nb", want: "<p>a<br>b</p>"},
		{name: "markup is escaped", in: "<b>hi</b>", want: "<p>&lt;b&gt;hi&lt;/b&gt;</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toHTML(tt.in); got != tt.want {
				t.Errorf("toHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
