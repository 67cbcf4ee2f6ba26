package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shift-clock/backend/config"
	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/lockout"
	"shift-clock/backend/internal/notify"
	"shift-clock/backend/internal/service"
	pkgerrors "shift-clock/backend/pkg/errors"
	"shift-clock/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testDeviceUUID = "6f1c2d3e-4a5b-4c6d-8e7f-901234567890"
	testShiftID    = "0b8e6c1a-2f3d-4e5a-9b7c-1d2e3f405162"
)

var testClockCfg = &config.ClockConfig{
	DeviceCookieName:   "TT_DEVICE",
	DeviceCookieMaxAge: 365 * 24 * time.Hour,
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ClockService ──

type mockClockService struct {
	statusResult *dto.ClockStatusResponse
	statusErr    error
	inResult     *dto.ClockInResponse
	inErr        error
	outResult    *dto.ClockOutResponse
	outErr       error

	lastDevice string
	lastPIN    string
}

func (m *mockClockService) Status(_ context.Context, deviceUUID string) (*dto.ClockStatusResponse, error) {
	m.lastDevice = deviceUUID
	return m.statusResult, m.statusErr
}
func (m *mockClockService) ClockIn(_ context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockInResponse, error) {
	m.lastDevice, m.lastPIN = deviceUUID, req.PIN
	return m.inResult, m.inErr
}
func (m *mockClockService) ClockOut(_ context.Context, deviceUUID string, req *dto.ClockRequest) (*dto.ClockOutResponse, error) {
	m.lastDevice, m.lastPIN = deviceUUID, req.PIN
	return m.outResult, m.outErr
}

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	meResult    *dto.EmployeeResponse
	meErr       error
	logoutErr   error

	lastIP    string
	lastJTI   string
	lastExpAt time.Time
}

func (m *mockAuthService) Login(_ context.Context, clientIP string, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	m.lastIP = clientIP
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.EmployeeResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, expiresAt time.Time) error {
	m.lastJTI, m.lastExpAt = jti, expiresAt
	return m.logoutErr
}

// ── Mock ShiftService ──
// 只实现 Handler 用到的方法，其余方法调用时 panic

type mockShiftService struct {
	service.ShiftService

	editResult *dto.EditShiftResponse
	editErr    error
	lastEditor string
}

func (m *mockShiftService) Edit(_ context.Context, _ string, _ *dto.EditShiftRequest, editorID string) (*dto.EditShiftResponse, error) {
	m.lastEditor = editorID
	return m.editResult, m.editErr
}

// ── Mock ExportService ──

type mockExportService struct {
	file *service.ExportFile
	err  error
}

func (m *mockExportService) ExportReport(_ context.Context, _ *dto.ExportReportRequest) (*service.ExportFile, error) {
	return m.file, m.err
}

// ── Mock EventSource ──

type mockEventSource struct {
	events chan notify.Event
}

func (m *mockEventSource) Subscribe(_ int) (<-chan notify.Event, func()) {
	return m.events, func() {}
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set(ctxEmployeeID, "admin-1")
	c.Set(ctxRole, "SUPER_ADMIN")
	c.Set(ctxTokenJTI, "test-jti")
	c.Set(ctxTokenExp, time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// closeNotifyRecorder gin 的 Stream 需要 http.CloseNotifier
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool { return r.closed }

// ═══════════════════════════════════════════════════════════
// ClockHandler Tests
// ═══════════════════════════════════════════════════════════

func TestClockHandler_Status_UnregisteredIssuesCookie(t *testing.T) {
	mock := &mockClockService{statusErr: service.ErrDeviceNotRegistered}
	h := NewClockHandler(mock, testClockCfg)

	r, _, w := setupGin()
	r.GET("/clock/status", h.Status)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clock/status", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("期望 403，实际=%d", w.Code)
	}
	cookie := findCookie(w, "TT_DEVICE")
	if cookie == nil {
		t.Fatal("期望写入终端 Cookie")
	}
	if !cookie.HttpOnly {
		t.Error("期望终端 Cookie 为 HttpOnly")
	}
	if cookie.Value != mock.lastDevice {
		t.Errorf("期望服务收到新生成的终端标识，实际=%s", mock.lastDevice)
	}
	resp := parseResponse(w)
	if resp.Code != 22001 {
		t.Errorf("期望错误码 22001，实际=%d", resp.Code)
	}
	if resp.Details != cookie.Value {
		t.Errorf("期望 details 为终端标识，实际=%s", resp.Details)
	}
}

func TestClockHandler_Status_ReusesExistingCookie(t *testing.T) {
	mock := &mockClockService{statusResult: &dto.ClockStatusResponse{LocationName: "BP Gas Station", Status: "idle"}}
	h := NewClockHandler(mock, testClockCfg)

	r, _, w := setupGin()
	r.GET("/clock/status", h.Status)
	req := httptest.NewRequest(http.MethodGet, "/clock/status", nil)
	req.AddCookie(&http.Cookie{Name: "TT_DEVICE", Value: testDeviceUUID})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastDevice != testDeviceUUID {
		t.Errorf("期望使用已有终端标识，实际=%s", mock.lastDevice)
	}
	if findCookie(w, "TT_DEVICE") != nil {
		t.Error("已有合法 Cookie 时不应重新写入")
	}
}

func TestClockHandler_Status_MalformedCookieReplaced(t *testing.T) {
	mock := &mockClockService{statusResult: &dto.ClockStatusResponse{}}
	h := NewClockHandler(mock, testClockCfg)

	r, _, w := setupGin()
	r.GET("/clock/status", h.Status)
	req := httptest.NewRequest(http.MethodGet, "/clock/status", nil)
	req.AddCookie(&http.Cookie{Name: "TT_DEVICE", Value: "not-a-uuid"})
	r.ServeHTTP(w, req)

	if mock.lastDevice == "not-a-uuid" {
		t.Error("非法终端标识不应传给服务层")
	}
	if findCookie(w, "TT_DEVICE") == nil {
		t.Error("期望重新写入终端 Cookie")
	}
}

func TestClockHandler_ClockIn_Success(t *testing.T) {
	mock := &mockClockService{inResult: &dto.ClockInResponse{ShiftID: "s1", EmployeeName: "张三"}}
	h := NewClockHandler(mock, testClockCfg)

	r, _, w := setupGin()
	r.POST("/clock/in", h.ClockIn)
	req := httptest.NewRequest(http.MethodPost, "/clock/in", jsonBody(dto.ClockRequest{PIN: "1234"}))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "TT_DEVICE", Value: testDeviceUUID})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastPIN != "1234" || mock.lastDevice != testDeviceUUID {
		t.Errorf("期望透传 PIN 与终端标识，实际 pin=%s device=%s", mock.lastPIN, mock.lastDevice)
	}
}

func TestClockHandler_ClockIn_BadJSON(t *testing.T) {
	h := NewClockHandler(&mockClockService{}, testClockCfg)

	r, _, w := setupGin()
	r.POST("/clock/in", h.ClockIn)
	req := httptest.NewRequest(http.MethodPost, "/clock/in", strings.NewReader("{pin"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestClockHandler_ClockErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"锁定", lockout.ErrLocked, http.StatusTooManyRequests, 21001},
		{"PIN 错误", service.ErrInvalidPIN, http.StatusUnauthorized, 21002},
		{"缺少 PIN", service.ErrPINRequired, http.StatusBadRequest, 21003},
		{"已在班", service.ErrShiftAlreadyOpen, http.StatusConflict, 20001},
		{"不在班", service.ErrNoOpenShift, http.StatusConflict, 20002},
		{"门店不一致", service.ErrLocationMismatch, http.StatusConflict, 20003},
		{"未知错误", errors.New("boom"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockClockService{outErr: fmt.Errorf("打卡失败: %w", tt.err)}
			h := NewClockHandler(mock, testClockCfg)

			r, _, w := setupGin()
			r.POST("/clock/out", h.ClockOut)
			req := httptest.NewRequest(http.MethodPost, "/clock/out", jsonBody(dto.ClockRequest{PIN: "0000"}))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际=%d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "token", ExpiresIn: 28800}}
	h := NewAuthHandler(mock)

	r, _, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{PIN: "9999"}))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastIP != "203.0.113.7" {
		t.Errorf("期望按客户端 IP 限流，实际=%s", mock.lastIP)
	}
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"锁定", lockout.ErrLocked, http.StatusTooManyRequests, 21001},
		{"PIN 错误", service.ErrInvalidPIN, http.StatusUnauthorized, 21002},
		{"非管理员", service.ErrNotAdmin, http.StatusForbidden, 10003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err})

			r, _, w := setupGin()
			r.POST("/auth/login", h.Login)
			req := httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{PIN: "1111"}))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际=%d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_GetCurrentUser_NoAuth(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, _, w := setupGin()
	r.GET("/auth/me", h.GetCurrentUser)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际=%d", w.Code)
	}
}

func TestAuthHandler_Logout_PassesTokenInfo(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r, _, w := setupGin()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastJTI != "test-jti" {
		t.Errorf("期望 jti=test-jti，实际=%s", mock.lastJTI)
	}
	if !mock.lastExpAt.Equal(time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)) {
		t.Errorf("期望透传过期时间，实际=%v", mock.lastExpAt)
	}
}

// ═══════════════════════════════════════════════════════════
// ShiftHandler Tests
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_EditShift_UsesCallerAsEditor(t *testing.T) {
	mock := &mockShiftService{editResult: &dto.EditShiftResponse{}}
	h := NewShiftHandler(mock)

	r, _, w := setupGin()
	r.PUT("/shifts/:id", func(c *gin.Context) {
		setAuth(c)
		h.EditShift(c)
	})
	req := httptest.NewRequest(http.MethodPut, "/shifts/"+testShiftID, jsonBody(map[string]interface{}{
		"clock_in_time":  "2026-03-02T09:00:00Z",
		"clock_out_time": "2026-03-02T17:00:00Z",
		"reason":         "忘记打卡",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if mock.lastEditor != "admin-1" {
		t.Errorf("期望修改人为当前管理员，实际=%s", mock.lastEditor)
	}
}

func TestShiftHandler_EditShift_MissingClockIn(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	r, _, w := setupGin()
	r.PUT("/shifts/:id", func(c *gin.Context) {
		setAuth(c)
		h.EditShift(c)
	})
	req := httptest.NewRequest(http.MethodPut, "/shifts/"+testShiftID, jsonBody(map[string]string{"reason": "x"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestShiftHandler_MalformedID_NotFound(t *testing.T) {
	mock := &mockShiftService{}
	h := NewShiftHandler(mock)

	r, _, _ := setupGin()
	withAuth := func(next gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			setAuth(c)
			next(c)
		}
	}
	r.GET("/shifts/:id", h.GetShift)
	r.PUT("/shifts/:id", withAuth(h.EditShift))
	r.GET("/shifts/:id/audits", h.ListShiftAudits)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/shifts/abc"},
		{http.MethodPut, "/shifts/abc"},
		{http.MethodGet, "/shifts/123/audits"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, jsonBody(map[string]interface{}{
				"clock_in_time": "2026-03-02T09:00:00Z",
				"reason":        "忘记打卡",
			}))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("期望 404，实际=%d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != 20006 {
				t.Errorf("期望错误码 20006，实际=%d", resp.Code)
			}
		})
	}
	if mock.lastEditor != "" {
		t.Errorf("非法 id 不应调用服务层，实际修改人=%s", mock.lastEditor)
	}
}

// 服务层为 nil，非法 id 一旦放行即 panic
func TestAdminHandlers_MalformedID_NotFound(t *testing.T) {
	r, _, _ := setupGin()
	employees := NewEmployeeHandler(nil, nil)
	locations := NewLocationHandler(nil)
	devices := NewDeviceHandler(nil, &config.ClockConfig{})
	r.GET("/employees/:id", employees.GetEmployee)
	r.POST("/employees/:id/reset-pin", employees.ResetPIN)
	r.GET("/employees/:id/shifts.ics", employees.ExportCalendar)
	r.GET("/locations/:id", locations.GetLocation)
	r.DELETE("/locations/:id", locations.DeleteLocation)
	r.PUT("/devices/:id/toggle", devices.ToggleDevice)

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{http.MethodGet, "/employees/emp-1", 23001},
		{http.MethodPost, "/employees/1/reset-pin", 23001},
		{http.MethodGet, "/employees/abc/shifts.ics", 23001},
		{http.MethodGet, "/locations/loc-1", 16001},
		{http.MethodDelete, "/locations/0b8e6c1a", 16001},
		{http.MethodPut, "/devices/dev-1/toggle", 22002},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != http.StatusNotFound {
				t.Errorf("期望 404，实际=%d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleShiftError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   int
	}{
		{service.ErrInvalidShiftOrder, http.StatusBadRequest, 20004},
		{service.ErrEditReasonRequired, http.StatusBadRequest, 20005},
		{service.ErrShiftNotFound, http.StatusNotFound, 20006},
		{pkgerrors.ErrOptimisticLock, http.StatusConflict, 20007},
		{service.ErrEmployeeNotFound, http.StatusNotFound, 23001},
		{service.ErrInvalidDate, http.StatusBadRequest, 10001},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			_, c, w := setupGin()
			handleShiftError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际=%d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望错误码 %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportReport_Attachment(t *testing.T) {
	mock := &mockExportService{file: &service.ExportFile{
		Buffer:      bytes.NewBufferString("周工时报表\n"),
		Filename:    "weekly-2026-03-02.csv",
		ContentType: "text/csv; charset=utf-8",
	}}
	h := NewExportHandler(mock)

	r, _, w := setupGin()
	r.GET("/reports/export", h.ExportReport)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/export?kind=weekly&format=csv", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="weekly-2026-03-02.csv"` {
		t.Errorf("Content-Disposition 不符，实际=%s", got)
	}
	if got := w.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type 不符，实际=%s", got)
	}
	if w.Body.String() != "周工时报表\n" {
		t.Errorf("文件内容不符，实际=%q", w.Body.String())
	}
}

func TestExportHandler_ExportReport_InvalidFormat(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	r, _, w := setupGin()
	r.GET("/reports/export", h.ExportReport)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/export?format=pdf", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestExportHandler_ExportReport_InvalidDate(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrInvalidDate})

	r, _, w := setupGin()
	r.GET("/reports/export", h.ExportReport)
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports/export?week_start=03/02/2026", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StreamHandler Tests
// ═══════════════════════════════════════════════════════════

func serveStream(t *testing.T, events chan notify.Event) string {
	t.Helper()
	h := NewStreamHandler(&mockEventSource{events: events})

	r := gin.New()
	r.GET("/admin/stream", h.Stream)

	w := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stream", nil))
	return w.Body.String()
}

func TestStreamHandler_SendsConnected(t *testing.T) {
	events := make(chan notify.Event)
	close(events)

	body := serveStream(t, events)

	if !strings.Contains(body, "event:connected\ndata:ok") {
		t.Errorf("期望首先推送 connected 事件，实际=%q", body)
	}
	if strings.Contains(body, "event:open-shifts") {
		t.Error("没有打卡事件时不应推送刷新")
	}
}

func TestStreamHandler_CoalescesBurst(t *testing.T) {
	events := make(chan notify.Event, 3)
	events <- notify.Event{Type: notify.EventClockIn}
	events <- notify.Event{Type: notify.EventClockOut}
	events <- notify.Event{Type: notify.EventShiftEdited}
	close(events)

	body := serveStream(t, events)

	if n := strings.Count(body, "event:open-shifts"); n != 1 {
		t.Errorf("期望积压事件合并为一次 open-shifts 推送，实际=%d", n)
	}
	if n := strings.Count(body, "event:reports"); n != 1 {
		t.Errorf("期望积压事件合并为一次 reports 推送，实际=%d", n)
	}
	if !strings.Contains(body, "data:refresh") {
		t.Errorf("期望推送数据为 refresh，实际=%q", body)
	}
}
