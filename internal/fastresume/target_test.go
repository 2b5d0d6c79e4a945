package fastresume

import (
	"errors"
	"testing"
)

func TestConvertSlashes(t *testing.T) {
	cases := []struct {
		path   string
		target TargetOS
		want   string
	}{
		{"C:/some/path", TargetWindows, `C:\some\path`},
		{`C:\some\path`, TargetWindows, `C:\some\path`},
		{`\some\path\for\linux`, TargetPOSIX, "/some/path/for/linux"},
		{"/some/path/for/linux", TargetPOSIX, "/some/path/for/linux"},
		{`//double\\sep`, TargetPOSIX, "//double//sep"},
	}
	for _, tc := range cases {
		got, err := ConvertSlashes(tc.path, tc.target)
		if err != nil {
			t.Fatalf("ConvertSlashes(%q, %s): %v", tc.path, tc.target, err)
		}
		if got != tc.want {
			t.Fatalf("ConvertSlashes(%q, %s) = %q, want %q", tc.path, tc.target, got, tc.want)
		}
	}

	if _, err := ConvertSlashes("/x", TargetNone); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for TargetNone, got %v", err)
	}
}

func TestConvertSlashesIdempotent(t *testing.T) {
	win := `D:\Torrents\Linux ISOs`
	same, _ := ConvertSlashes(win, TargetWindows)
	if same != win {
		t.Fatalf("windows to windows changed path: %q", same)
	}
	once, _ := ConvertSlashes(win, TargetPOSIX)
	twice, _ := ConvertSlashes(once, TargetPOSIX)
	if once != "D:/Torrents/Linux ISOs" || once != twice {
		t.Fatalf("posix conversion not idempotent: %q then %q", once, twice)
	}
}

func TestParseTargetOS(t *testing.T) {
	cases := map[string]TargetOS{
		"":        TargetNone,
		"Windows": TargetWindows,
		"WINDOWS": TargetWindows,
		" linux ": TargetPOSIX,
		"Mac":     TargetPOSIX,
		"posix":   TargetPOSIX,
	}
	for in, want := range cases {
		got, err := ParseTargetOS(in)
		if err != nil {
			t.Fatalf("ParseTargetOS(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseTargetOS(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseTargetOS("beos"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestDetectTargetOS(t *testing.T) {
	if got := DetectTargetOS("/mnt/data", `D:\data`); got != TargetWindows {
		t.Fatalf("expected windows, got %v", got)
	}
	if got := DetectTargetOS(`D:\data`, "/mnt/data"); got != TargetPOSIX {
		t.Fatalf("expected posix, got %v", got)
	}
	if got := DetectTargetOS("/a", "/b"); got != TargetNone {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := TargetWindows.DisplayName(); got != "Windows" {
		t.Fatalf("unexpected display name %q", got)
	}
	if got := TargetPOSIX.DisplayName(); got != "Linux/Mac" {
		t.Fatalf("unexpected display name %q", got)
	}
}

func TestExpandTemplate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`/\1/regex`, "/${1}/regex"},
		{`\g<1>x`, "${1}x"},
		{`\g<name>`, "${name}"},
		{`\12`, "${12}"},
		{`cost$5`, "cost$$5"},
		{`D:\\Torrents`, `D:\Torrents`},
		{`D:\Torrents\\1`, `D:\Torrents\1`},
		{`trailing\`, `trailing\`},
	}
	for _, tc := range cases {
		if got := ExpandTemplate(tc.in); got != tc.want {
			t.Fatalf("ExpandTemplate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewReplacerRegexWindowsTemplate(t *testing.T) {
	replace, err := NewReplacer(`^/mnt/(\w+)`, `D:\Media\\\1`, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := replace("/mnt/movies/a.mkv"); got != `D:\Media\movies/a.mkv` {
		t.Fatalf("unexpected replacement %q", got)
	}
}
