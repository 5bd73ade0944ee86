package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/job-triage/internal/store/memory"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadCandidateFile(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "\n  Go developer, five years.  \n")
	path := writeFile(t, dir, "candidate.yaml", `
user: ada
profile:
  full-name: Ada Lovelace
  graduation-date: "2026-05"
  work-authorization: EU citizen
preferences:
  roles: [Backend Engineer, Platform Engineer]
  remote-ok: "true"
  min-salary: "90000"
resume-file: `+resume+`
`)

	f, err := readCandidateFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.User != "ada" || f.Profile.FullName != "Ada Lovelace" || f.Profile.GraduationDate != "2026-05" {
		t.Fatalf("unexpected profile: %+v", f)
	}
	if len(f.Preferences.Roles) != 2 || !f.Preferences.RemoteOK || f.Preferences.MinSalary != 90000 {
		t.Fatalf("unexpected preferences: %+v", f.Preferences)
	}
	if f.Resume != "Go developer, five years." {
		t.Fatalf("unexpected resume: %q", f.Resume)
	}

	st := memory.New()
	if err := saveCandidate(context.Background(), st, f.User, f); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, err := st.GetCandidate(context.Background(), "ada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.ResumeText() != f.Resume || !c.Preferences.HasRoles() {
		t.Fatalf("unexpected stored candidate: %+v", c)
	}
}

func TestReadCandidateFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown key", content: "profile:\n  nickname: ada\n", wantErr: "decoding"},
		{name: "missing resume file", content: "resume-file: " + filepath.Join(dir, "missing.txt") + "\n", wantErr: "reading resume file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			if _, err := readCandidateFile(path); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
