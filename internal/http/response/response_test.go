package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/studyden/studyden-backend/internal/platform/apierr"
)

func TestRespondAppErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{apierr.ErrNotFound, http.StatusNotFound},
		{apierr.ErrInvalidArgument, http.StatusBadRequest},
		{apierr.ErrUnauthorized, http.StatusUnauthorized},
		{apierr.ErrForbidden, http.StatusForbidden},
		{apierr.ErrConflict, http.StatusConflict},
		{apierr.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("load file: %w", apierr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondAppError(c, tc.err)
		if w.Code != tc.want {
			t.Fatalf("RespondAppError(%v) = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}
