package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func runDevice(t *testing.T, cookie *http.Cookie) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got string
	mw := Device(DeviceConfig{Secure: true, MaxAge: time.Hour})
	handler := mw(func(c echo.Context) error {
		got, _ = c.Get(DeviceKey).(string)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return got, rec
}

func TestDevice_IssuesCookie(t *testing.T) {
	got, rec := runDevice(t, nil)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected uuid device id, got %q", got)
	}

	res := rec.Result()
	defer res.Body.Close()
	var issued *http.Cookie
	for _, ck := range res.Cookies() {
		if ck.Name == DeviceCookie {
			issued = ck
		}
	}
	if issued == nil {
		t.Fatalf("expected %s cookie to be set", DeviceCookie)
	}
	if issued.Value != got || !issued.HttpOnly || !issued.Secure {
		t.Fatalf("unexpected cookie %+v", issued)
	}
}

func TestDevice_KeepsExistingCookie(t *testing.T) {
	id := uuid.NewString()
	got, _ := runDevice(t, &http.Cookie{Name: DeviceCookie, Value: id})
	if got != id {
		t.Fatalf("expected device %s, got %s", id, got)
	}
}

func TestDevice_ReplacesForgedCookie(t *testing.T) {
	got, _ := runDevice(t, &http.Cookie{Name: DeviceCookie, Value: "../../etc"})
	if got == "../../etc" {
		t.Fatalf("expected forged device id to be replaced")
	}
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected uuid device id, got %q", got)
	}
}
