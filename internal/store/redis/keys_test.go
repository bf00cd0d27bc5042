package redis

import "testing"

func TestKeys(t *testing.T) {
	k := NewKeys("")
	if got := k.Entry("abc"); got != "mysa:entry:abc" {
		t.Errorf("Entry() = %q", got)
	}
	if got := k.Order(); got != "mysa:entries:order" {
		t.Errorf("Order() = %q", got)
	}

	custom := NewKeys("test:")
	if got := custom.Entry("x"); got != "test:entry:x" {
		t.Errorf("Entry() with custom prefix = %q", got)
	}
}

func TestEntryID(t *testing.T) {
	k := NewKeys("")

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "valid", key: "mysa:entry:abc", want: "abc"},
		{name: "prefix only", key: "mysa:entry:", wantErr: true},
		{name: "other prefix", key: "other:entry:abc", wantErr: true},
		{name: "order key", key: "mysa:entries:order", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.EntryID(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EntryID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EntryID() = %q, want %q", got, tt.want)
			}
		})
	}
}
