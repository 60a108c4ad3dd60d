package chat

import "testing"

func TestClassifyFrame(t *testing.T) {
	tests := []struct {
		name string
		data string
		want EventKind
		drop bool
	}{
		{
			name: "chat message",
			data: `{"senderId":1,"content":"hello","timestamp":1700000000000}`,
			want: EventMessage,
		},
		{
			name: "empty content is still a message",
			data: `{"senderId":1,"content":""}`,
			want: EventMessage,
		},
		{
			name: "presence",
			data: `{"senderId":2}`,
			want: EventPresence,
		},
		{
			name: "presence offline",
			data: `{"senderId":2,"online":false}`,
			want: EventPresence,
		},
		{
			name: "no senderId is dropped",
			data: `{"content":"orphan"}`,
			drop: true,
		},
		{
			name: "unrecognized shape is dropped",
			data: `{"type":"server-notice","text":"maintenance at noon"}`,
			drop: true,
		},
		{
			name: "invalid json is dropped",
			data: `{not json`,
			drop: true,
		},
		{
			name: "non-object is dropped",
			data: `[1,2,3]`,
			drop: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, ok := classifyFrame([]byte(tt.data))
			if tt.drop {
				if ok {
					t.Fatalf("expected drop, got %+v", event)
				}
				return
			}
			if !ok {
				t.Fatal("expected event, frame was dropped")
			}
			if event.Kind != tt.want {
				t.Errorf("kind = %v, want %v", event.Kind, tt.want)
			}
		})
	}
}

func TestClassifyFrameFields(t *testing.T) {
	event, ok := classifyFrame([]byte(`{"senderId":7,"content":"你好","timestamp":1700000000123}`))
	if !ok || event.Message == nil {
		t.Fatalf("expected message event, got %+v", event)
	}
	if event.Message.SenderID != 7 || event.Message.Content != "你好" || event.Message.Timestamp != 1700000000123 {
		t.Errorf("message = %+v", event.Message)
	}

	event, ok = classifyFrame([]byte(`{"senderId":9,"online":false}`))
	if !ok || event.Presence == nil {
		t.Fatalf("expected presence event, got %+v", event)
	}
	if event.Presence.ContactID != 9 || event.Presence.Online {
		t.Errorf("presence = %+v", event.Presence)
	}
}
