package logutil

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/act3-ai/forge/internal/mocks/httpmock"
)

func Test_LoggingTransport_RoundTrip(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		rtMock := httpmock.NewMockRoundTripper(ctrl)

		const reqBodyContents = "request foo"

		rtMock.EXPECT().
			RoundTrip(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				// the real request must pass through unredacted
				assert.Equal(t, "secret=true", req.URL.RawQuery)
				assert.NotNil(t, req.URL.User)

				// body readable exactly once, untouched
				body, err := io.ReadAll(req.Body)
				assert.NoError(t, err)
				assert.Equal(t, reqBodyContents, string(body))

				return &http.Response{
					StatusCode: http.StatusOK,
					Status:     "200 OK",
					Body:       io.NopCloser(strings.NewReader("response bar")),
				}, nil
			})

		req := &http.Request{
			Method: http.MethodPut,
			URL: &url.URL{
				Scheme:   "https",
				Host:     "example.com",
				Path:     "/blobs/alice/web.git/objects/pack/pack-abc.pack",
				User:     url.UserPassword("user", "pass"),
				RawQuery: "secret=true",
			},
			Body:          io.NopCloser(strings.NewReader(reqBodyContents)),
			ContentLength: int64(len(reqBodyContents)),
		}

		lt := &LoggingTransport{Base: rtMock}
		resp, err := lt.RoundTrip(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func Test_redactURL(t *testing.T) {
	u := &url.URL{
		Scheme:   "https",
		Host:     "example.com",
		Path:     "/blobs/key",
		User:     url.UserPassword("user", "pass"),
		RawQuery: "X-Signature=abc123",
	}

	got := redactURL(u)
	assert.NotContains(t, got, "pass")
	assert.NotContains(t, got, "abc123")

	// original untouched
	assert.NotNil(t, u.User)
	assert.Equal(t, "X-Signature=abc123", u.RawQuery)
}
