package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSameOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SameOrigin())
	r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name    string
		method  string
		headers map[string]string
		want    int
	}{
		{"get from anywhere", http.MethodGet, map[string]string{"Origin": "https://evil.example"}, http.StatusOK},
		{"post without browser headers", http.MethodPost, nil, http.StatusOK},
		{"post same origin", http.MethodPost, map[string]string{"Origin": "http://shop.test"}, http.StatusOK},
		{"post same-origin referer", http.MethodPost, map[string]string{"Referer": "http://shop.test/admin/contactform"}, http.StatusOK},
		{"post fetch metadata same-origin", http.MethodPost, map[string]string{"Sec-Fetch-Site": "same-origin"}, http.StatusOK},
		{"post cross origin", http.MethodPost, map[string]string{"Origin": "https://evil.example"}, http.StatusForbidden},
		{"post null origin", http.MethodPost, map[string]string{"Origin": "null"}, http.StatusForbidden},
		{"post cross-site referer", http.MethodPost, map[string]string{"Referer": "https://evil.example/x"}, http.StatusForbidden},
		{"post fetch metadata cross-site", http.MethodPost, map[string]string{
			"Sec-Fetch-Site": "cross-site", "Origin": "http://shop.test",
		}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "http://shop.test/admin", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
