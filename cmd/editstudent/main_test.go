package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"student-records/db"
	"student-records/handlers"
)

func newRecordsServer(t *testing.T) (*httptest.Server, db.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := db.NewRedisService(client)
	db.Seed(context.Background(), store)

	router := gin.New()
	handlers.RegisterRoutes(router, handlers.NewAPIHandler(store))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEditStudentCommand(t *testing.T) {
	srv, store := newRecordsServer(t)

	stdout, stderr, err := execute(t, "S002", "--api", srv.URL,
		"--name", "Alan M. Turing", "--class", "CL2", "--add-course", "C3", "--remove-course", "C1")
	if err != nil {
		t.Fatalf("execute: %v (stderr %q)", err, stderr)
	}
	if !strings.Contains(stdout, "/list-students") {
		t.Errorf("stdout = %q, want navigation target", stdout)
	}

	saved, err := store.GetStudentByID(context.Background(), "S002")
	if err != nil || saved == nil {
		t.Fatalf("GetStudentByID = %v, %v", saved, err)
	}
	if saved.Name != "Alan M. Turing" || saved.ClassID != "CL2" || len(saved.MarkedCourses) != 1 || saved.MarkedCourses[0] != "C3" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestEditStudentCommandRejected(t *testing.T) {
	srv, store := newRecordsServer(t)

	stdout, stderr, err := execute(t, "S002", "--api", srv.URL, "--name", "  ", "--remove-course", "C1")
	if err == nil {
		t.Fatal("expected an error for an invalid form")
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
	for _, want := range []string{"Please enter the student's name.", "Please select at least one course."} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q: %q", want, stderr)
		}
	}

	saved, _ := store.GetStudentByID(context.Background(), "S002")
	if saved == nil || saved.Name != "Alan Turing" {
		t.Errorf("student changed after rejected submit: %+v", saved)
	}
}

func TestEditStudentCommandShow(t *testing.T) {
	srv, _ := newRecordsServer(t)

	stdout, _, err := execute(t, "S001", "--api", srv.URL, "--show")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Ada Lovelace", "CL1 (Grade 10 - A)", "Mathematics"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestEditStudentCommandMissingStudent(t *testing.T) {
	srv, _ := newRecordsServer(t)

	_, stderr, err := execute(t, "nobody", "--api", srv.URL, "--name", "Someone")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(stderr, "Failed to fetch data") {
		t.Errorf("stderr = %q", stderr)
	}
}
