package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"playpod/config"
	"playpod/core/playback"
	"playpod/logger"
	"playpod/model"

	"github.com/gorilla/mux"
)

// maxBodySize 普通 JSON 请求体上限
const maxBodySize = 1 << 20

// APIHandler 处理所有API请求
type APIHandler struct {
	svc *playback.Service
	cfg *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(svc *playback.Service, cfg *config.Config) *APIHandler {
	return &APIHandler{svc: svc, cfg: cfg}
}

// errorResponse 错误响应体
type errorResponse struct {
	Detail string `json:"detail"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[HTTP] 写入响应失败", logger.ErrorField(err))
	}
}

// statusFor 业务错误到 HTTP 状态码
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindNotFound, model.KindEndOfList:
		return http.StatusNotFound
	case model.KindDuplicateEntry:
		return http.StatusConflict
	case model.KindOutOfRange, model.KindValidation, model.KindEmptyCollection:
		return http.StatusBadRequest
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var me *model.Error
	if errors.As(err, &me) {
		status := statusFor(me.Kind)
		if status >= http.StatusInternalServerError {
			logger.Warn("[HTTP] 上游服务错误",
				logger.String("path", r.URL.Path),
				logger.ErrorField(err))
		}
		writeJSON(w, status, errorResponse{Detail: me.Error(), Reason: string(me.Kind)})
		return
	}

	logger.Error("[HTTP] 请求处理失败",
		logger.String("method", r.Method),
		logger.String("path", r.URL.Path),
		logger.ErrorField(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error", Reason: "internal_error"})
}

// decodeJSON 解析请求体；allowEmpty 为 true 时空请求体不报错
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(dst)
	if err == io.EOF && allowEmpty {
		return nil
	}
	if err != nil {
		return model.Validation("Invalid request body")
	}
	return nil
}

// pathInt 读取整数路径参数
func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Validation("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryInt 读取整数查询参数，缺省时返回 def
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Validation("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryTime 读取 RFC3339 时间参数
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, model.Validation("invalid %s %q, expected RFC3339", name, raw)
	}
	return &t, nil
}

// flexibleID 同时接受数字和字符串形式的曲目ID
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// trackIDRequest 只带 track_id 的请求体
type trackIDRequest struct {
	TrackID flexibleID `json:"track_id"`
}

// positionRequest 只带 position 的请求体
type positionRequest struct {
	Position *int `json:"position"`
}

func (p positionRequest) value() (int, error) {
	if p.Position == nil {
		return 0, model.Validation("position is required")
	}
	return *p.Position, nil
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
