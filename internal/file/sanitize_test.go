package file

import "testing"

func TestSanitizeBaseName(t *testing.T) {
	cases := map[string]string{
		"notes.txt":            "notes.txt",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\cv.pdf`:   "cv.pdf",
		"résumé final.pdf":     "resume_final.pdf",
		"..":                   "file",
		"":                     "file",
		".bashrc":              "bashrc",
		"a  b\t\tc.tar.gz":     "a_b_c.tar.gz",
		"данные.csv":           "csv",
		"report (1).docx":      "report_1_.docx",
		"my_file-v2.txt":       "my_file-v2.txt",
	}

	for in, want := range cases {
		if got := sanitizeBaseName(in); got != want {
			t.Errorf("sanitizeBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeBaseNameTruncates(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeBaseName(string(long) + ".txt")
	if len(got) != maxBaseNameLen {
		t.Fatalf("expected length %d, got %d", maxBaseNameLen, len(got))
	}
	if got[len(got)-4:] != ".txt" {
		t.Fatalf("expected extension kept, got %q", got[len(got)-4:])
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("  "); got != "unnamed" {
		t.Fatalf("expected unnamed, got %q", got)
	}
	if got := displayName("Report.pdf"); got != "Report.pdf" {
		t.Fatalf("expected name kept, got %q", got)
	}
}
