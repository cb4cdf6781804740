package server

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roboticeyes/quataffine/event"
)

func init() {
	gin.SetMode(gin.TestMode)
	event.SetOutput(ioutil.Discard)
}

func do(t *testing.T, r http.Handler, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCanonicalFrames(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/frames/canonical", gin.H{
		"n":  []float64{-0.527, 1.359, 0, 0, 1, 0},
		"ca": []float64{0, 0, 0, 1, 1, 1},
		"c":  []float64{1.525, 0, 0, 3, 1, 1},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp canonicalResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, []int{2}, resp.Shape)
	assert.Len(t, resp.Translation, 6)
	assert.Len(t, resp.Rotation, 18)
	assert.Len(t, resp.Frames, 14)
	assert.Len(t, resp.Transformations, 2)
	assert.InDeltaSlice(t, []float64{-1, -1, -1}, resp.Translation[3:], 1e-12)
	// the reference residue is already canonical: frame translation is CA
	assert.InDeltaSlice(t, []float64{0, 0, 0}, resp.Frames[4:7], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, resp.Frames[11:14], 1e-12)
}

func TestCanonicalDegenerateIsUnprocessable(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/frames/canonical", gin.H{
		"n": []float64{1, 1, 1}, "ca": []float64{1, 1, 1}, "c": []float64{1, 1, 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestComposeFrames(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/frames/compose", gin.H{
		"frames":    []float64{2, 0, 0, 0, 1, 2, 3},
		"update":    []float64{0, 0, 0, 1, 0, 0},
		"normalize": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp framesResponse
	decodeBody(t, w, &resp)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 2, 2, 3}, resp.Frames, 1e-12)

	w = do(t, r, "/v1/frames/compose", gin.H{
		"frames": []float64{1, 0, 0, 0, 1, 2, 3},
		"update": []float64{0, 0, 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyAndInvert(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	frames := []float64{0.7071067811865476, 0, 0, 0.7071067811865476, 10, 0, 0}
	w := do(t, r, "/v1/frames/apply", gin.H{
		"frames":     frames,
		"points":     []float64{1, 0, 0, 0, 1, 0},
		"extraShape": []int{2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp pointsResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, []int{1, 2, 3}, resp.Shape)
	assert.InDeltaSlice(t, []float64{10, 1, 0, 9, 0, 0}, resp.Points, 1e-12)

	w = do(t, r, "/v1/frames/invert", gin.H{
		"frames":     frames,
		"points":     resp.Points,
		"extraShape": []int{2},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &resp)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 1, 0}, resp.Points, 1e-12)

	w = do(t, r, "/v1/frames/apply", gin.H{"frames": frames, "points": []float64{1, 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRescaleFrames(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	frames := []float64{1, 0, 0, 0, 1, 2, 3, 1, 0, 0, 0, 1, 1, 1}

	w := do(t, r, "/v1/frames/rescale", gin.H{"frames": frames, "scale": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp framesResponse
	decodeBody(t, w, &resp)
	assert.InDeltaSlice(t, []float64{2, 4, 6}, resp.Frames[4:7], 1e-12)

	w = do(t, r, "/v1/frames/rescale", gin.H{"frames": frames, "scale": []float64{1, 10}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeBody(t, w, &resp)
	assert.InDeltaSlice(t, []float64{10, 10, 10}, resp.Frames[11:14], 1e-12)

	w = do(t, r, "/v1/frames/rescale", gin.H{"frames": frames, "scale": "big"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRotationsToQuaternions(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/rotations/quaternion", gin.H{"rotations": []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp quaternionsResponse
	decodeBody(t, w, &resp)
	require.Len(t, resp.Quaternions, 4)
	assert.InDelta(t, 1, resp.Quaternions[0]*resp.Quaternions[0], 1e-12)

	w = do(t, r, "/v1/rotations/quaternion", gin.H{"rotations": []float64{3, 0, 0, 0, 3, 0, 0, 0, 3}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestApplyTransformations(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/transformations/apply", gin.H{
		"transformations": []gin.H{
			{"translation": []float64{10, 0, 0}, "rotation": []float64{0, 0, 0, 1}, "scale": 0.5},
		},
		"points": []float64{1, 2, 3},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp pointsResponse
	decodeBody(t, w, &resp)
	assert.InDeltaSlice(t, []float64{6, 2, 3}, resp.Points, 1e-6)
}

func TestMaxBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatch = 1
	r := NewServer(cfg).Router()
	w := do(t, r, "/v1/frames/rescale", gin.H{
		"frames": []float64{1, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0},
		"scale":  1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedBody(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	req := httptest.NewRequest(http.MethodPost, "/v1/frames/compose", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestZeroQuaternionIsRejected(t *testing.T) {
	r := NewServer(DefaultConfig()).Router()
	w := do(t, r, "/v1/frames/compose", gin.H{
		"frames":    []float64{0, 0, 0, 0, 1, 2, 3},
		"update":    []float64{0, 0, 0, 0, 0, 0},
		"normalize": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestMaxBatchCountsShapesAndPoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatch = 10
	r := NewServer(cfg).Router()
	identity := []float64{1, 0, 0, 0, 0, 0, 0}

	// the element count overflows int
	w := do(t, r, "/v1/frames/rescale", gin.H{
		"shape": []int64{1 << 32, 1 << 32},
		"scale": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, r, "/v1/frames/rescale", gin.H{
		"shape": []int{4, 4},
		"scale": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	// one frame, but too many points attached to it
	w = do(t, r, "/v1/frames/apply", gin.H{
		"frames":     identity,
		"points":     make([]float64, 3*11),
		"extraShape": []int{11},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = do(t, r, "/v1/frames/apply", gin.H{
		"frames":     identity,
		"points":     make([]float64, 3*10),
		"extraShape": []int{10},
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
