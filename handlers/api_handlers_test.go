package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/xuri/excelize/v2"
	"student-records/db"
	"student-records/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, db.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := db.NewRedisService(client)
	db.Seed(context.Background(), store)

	router := gin.New()
	router.Use(CORS([]string{"*"}))
	RegisterRoutes(router, NewAPIHandler(store))
	return router, store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func editBody(name, class string, courses ...string) models.StudentRequest {
	return models.StudentRequest{
		Student:       models.StudentPayload{Id: "S001", Name: name, ContactNumber: "555-9999", Class: class},
		MarkedCourses: courses,
	}
}

func TestGetStudent(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/getStudent/S001", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got map[string]interface{}
	decode(t, rec, &got)
	for _, key := range []string{"Name", "ContactNumber", "ClassId", "MarkedCourses"} {
		if _, ok := got[key]; !ok {
			t.Errorf("response missing %q: %v", key, got)
		}
	}
	if got["ClassId"] != "CL1" {
		t.Errorf("ClassId = %v, want CL1", got["ClassId"])
	}
	if !reflect.DeepEqual(got["MarkedCourses"], []interface{}{"C1", "C2"}) {
		t.Errorf("MarkedCourses = %v", got["MarkedCourses"])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/getStudent/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing student status = %d, want 404", rec.Code)
	}
}

func TestCatalogues(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/courses", nil)
	var courses []models.Option
	decode(t, rec, &courses)
	if len(courses) != 4 || courses[0] != (models.Option{Value: "C3", Text: "Chemistry"}) {
		t.Errorf("courses = %v", courses)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/classes", models.Clazz{ID: "CL0", Name: "Grade 09"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("AddClass status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/classes", nil)
	var classes []models.Option
	decode(t, rec, &classes)
	if len(classes) != 3 || classes[0].Value != "CL0" {
		t.Errorf("classes = %v", classes)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/courses", models.Course{ID: "C9"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("AddCourse without name status = %d, want 400", rec.Code)
	}
}

func TestUpdateStudent(t *testing.T) {
	router, store := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/api/edit/S001", editBody("  Ada King ", "CL2", "C4", "C1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	got, err := store.GetStudentByID(context.Background(), "S001")
	if err != nil || got == nil {
		t.Fatalf("GetStudentByID = %v, %v", got, err)
	}
	want := models.Student{ID: "S001", Name: "Ada King", ContactNumber: "555-9999", ClassID: "CL2", MarkedCourses: []string{"C4", "C1"}}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("stored = %+v, want %+v", *got, want)
	}
}

func TestUpdateStudentValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name       string
		path       string
		body       models.StudentRequest
		wantStatus int
		wantFields map[string]string
	}{
		{
			name:       "all required fields missing",
			path:       "/api/edit/S001",
			body:       editBody("", ""),
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{
				models.FieldName:   models.MsgNameRequired,
				models.FieldClass:  models.MsgClassRequired,
				models.FieldCourse: models.MsgCourseRequired,
			},
		},
		{
			name:       "whitespace name",
			path:       "/api/edit/S001",
			body:       editBody("   ", "CL1", "C1"),
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{models.FieldName: models.MsgNameRequired},
		},
		{
			name:       "unknown class and course",
			path:       "/api/edit/S001",
			body:       editBody("Ada", "CL9", "C9"),
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{
				models.FieldClass:  "Unknown class: CL9",
				models.FieldCourse: "Unknown course: C9",
			},
		},
		{
			name:       "duplicate course",
			path:       "/api/edit/S001",
			body:       editBody("Ada", "CL1", "C1", "C1"),
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{models.FieldCourse: "Duplicate course: C1"},
		},
		{
			name:       "id mismatch",
			path:       "/api/edit/S002",
			body:       editBody("Ada", "CL1", "C1"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown student",
			path:       "/api/edit/S404",
			body:       models.StudentRequest{Student: models.StudentPayload{Name: "Ada", Class: "CL1"}, MarkedCourses: []string{"C1"}},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantFields == nil {
				return
			}
			var body struct {
				Fields map[string]string `json:"fields"`
			}
			decode(t, rec, &body)
			if !reflect.DeepEqual(body.Fields, tt.wantFields) {
				t.Errorf("fields = %v, want %v", body.Fields, tt.wantFields)
			}
		})
	}
}

func TestCreateAndDeleteStudent(t *testing.T) {
	router, _ := newTestRouter(t)

	body := models.StudentRequest{
		Student:       models.StudentPayload{Name: "Katherine Johnson", Class: "CL2"},
		MarkedCourses: []string{"C1"},
	}
	rec := doJSON(t, router, http.MethodPost, "/api/create", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created models.StudentDetail
	decode(t, rec, &created)
	if created.Id == "" || created.Name != "Katherine Johnson" {
		t.Fatalf("created = %+v", created)
	}

	body.Student.Id = created.Id
	if rec := doJSON(t, router, http.MethodPost, "/api/create", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/classes/CL2/students", nil)
	var roster []models.StudentDetail
	decode(t, rec, &roster)
	if len(roster) != 2 {
		t.Errorf("roster = %v, want 2 students", roster)
	}

	if rec := doJSON(t, router, http.MethodDelete, "/api/delete/"+created.Id, nil); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodDelete, "/api/delete/"+created.Id, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodGet, "/api/classes/CL9/students", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown class roster status = %d, want 404", rec.Code)
	}
}

func TestImportStudents(t *testing.T) {
	router, store := newTestRouter(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Name", "ContactNumber", "Courses"})
	_ = f.SetSheetRow(sheet, "A2", &[]interface{}{"S100", "Hedy Lamarr", "555-0200", "C2"})
	_ = f.SetSheetRow(sheet, "A3", &[]interface{}{"S101", "Nobody", "", "NOPE"})
	xlsx, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	_ = f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("classId", "CL2")
	part, _ := mw.CreateFormFile("file", "students.xlsx")
	_, _ = part.Write(xlsx.Bytes())
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import/students", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var result struct {
		ImportedCount int `json:"importedCount"`
		SkippedCount  int `json:"skippedCount"`
		Rejected      []struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		} `json:"rejected"`
	}
	decode(t, rec, &result)
	if result.ImportedCount != 1 || result.SkippedCount != 1 {
		t.Errorf("counts = %+v, want 1 imported, 1 skipped", result)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].ID != "S101" || result.Rejected[0].Reason != "Unknown course: NOPE" {
		t.Errorf("rejected = %+v", result.Rejected)
	}

	student, err := store.GetStudentByID(context.Background(), "S100")
	if err != nil || student == nil || student.ClassID != "CL2" {
		t.Fatalf("imported student = %v, %v", student, err)
	}

	// An imported record can be saved back unchanged.
	edit := models.StudentRequest{
		Student:       models.StudentPayload{Id: student.ID, Name: student.Name, ContactNumber: student.ContactNumber, Class: student.ClassID},
		MarkedCourses: student.MarkedCourses,
	}
	if rec := doJSON(t, router, http.MethodPut, "/api/edit/S100", edit); rec.Code != http.StatusOK {
		t.Errorf("PUT imported student status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/edit/S001", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}

func TestCORSRestrictedOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"http://app.test"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]string{"http://app.test": "http://app.test", "http://evil.test": ""} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", origin, got, want)
		}
	}
}

func TestPing(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/ping", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["message"] != "Pong!" {
		t.Errorf("body = %v", body)
	}
}
