package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTempFile(t *testing.T) {
	p, err := WriteTempFile("iam-policy", []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(p)

	d, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(d) != "hello" {
		t.Fatalf("unexpected contents %q", string(d))
	}
	if !Exist(p) {
		t.Fatalf("%q expected to exist", p)
	}
}

func TestWriteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")

	p, err := WriteFile(dir, "nodepool.yaml", []byte("kind: NodePool"))
	if err != nil {
		t.Fatal(err)
	}
	d, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(d) != "kind: NodePool" {
		t.Fatalf("unexpected contents %q", string(d))
	}
}

func TestExist(t *testing.T) {
	if Exist("") {
		t.Fatal("empty path must not exist")
	}
	if Exist(filepath.Join(t.TempDir(), "missing")) {
		t.Fatal("missing path must not exist")
	}
}
