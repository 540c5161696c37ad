package gh

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckAllPrerequisitesPass(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		if name == "git" {
			return []byte("true\n"), nil
		}
		return []byte("Logged in to github.com"), nil
	}
	checker := NewChecker(runner)
	checker.lookPath = func(string) (string, error) { return "/usr/bin/gh", nil }

	if err := checker.Check(context.Background()); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckMissingGH(t *testing.T) {
	checker := NewChecker(NewMockRunner())
	checker.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	err := checker.Check(context.Background())
	var prereq *PrereqError
	if !errors.As(err, &prereq) {
		t.Fatalf("error %T, want *PrereqError", err)
	}
	if !strings.Contains(prereq.Error(), "not installed") {
		t.Errorf("error = %q", prereq.Error())
	}
}

func TestCheckUnauthenticated(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		if name == "gh" {
			return []byte("You are not logged into any GitHub hosts"), errors.New("exit status 1")
		}
		return []byte("true\n"), nil
	}
	checker := NewChecker(runner)
	checker.lookPath = func(string) (string, error) { return "/usr/bin/gh", nil }

	err := checker.Check(context.Background())
	if err == nil || !strings.Contains(err.Error(), "gh auth login") {
		t.Errorf("Check() error = %v, want auth remediation", err)
	}
}

func TestCheckOutsideRepository(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		if name == "git" {
			return []byte("fatal: not a git repository"), errors.New("exit status 128")
		}
		return []byte("ok"), nil
	}
	checker := NewChecker(runner)
	checker.lookPath = func(string) (string, error) { return "/usr/bin/gh", nil }

	err := checker.Check(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not inside a git repository") {
		t.Errorf("Check() error = %v, want repository error", err)
	}
}

func TestCheckBranchPushed(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		return []byte("abc123\trefs/heads/042-user-auth\n"), nil
	}
	checker := NewChecker(runner)

	if err := checker.CheckBranchPushed(context.Background(), "042-user-auth"); err != nil {
		t.Fatalf("CheckBranchPushed() error = %v", err)
	}
}

func TestCheckBranchNotPushed(t *testing.T) {
	runner := NewMockRunner()
	runner.RunFunc = func(name string, args ...string) ([]byte, error) {
		return []byte(""), nil
	}
	checker := NewChecker(runner)

	err := checker.CheckBranchPushed(context.Background(), "042-user-auth")
	if err == nil || !strings.Contains(err.Error(), "git push -u origin 042-user-auth") {
		t.Errorf("CheckBranchPushed() error = %v, want push remediation", err)
	}
}
