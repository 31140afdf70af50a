package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexus-shipping/internal/pkg/logger"
	"nexus-shipping/internal/pkg/metrics"
	"nexus-shipping/internal/service/shipping/application"
	"nexus-shipping/internal/service/shipping/domain"
)

// ShippingHandler 封装了 shipping 服务的 HTTP 处理器
type ShippingHandler struct {
	service *application.ShippingApplicationService
}

// NewShippingHandler 创建一个新的 HTTP 处理器实例
func NewShippingHandler(service *application.ShippingApplicationService) *ShippingHandler {
	return &ShippingHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *ShippingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/shipping/create/{$}", h.createShipment)
	mux.HandleFunc("PATCH /v1/shipping/{id}/update/{$}", h.updateStatus)
	mux.HandleFunc("GET /v1/shipping/{id}/detail/{$}", h.getShipment)
	mux.HandleFunc("GET /v1/health/{$}", h.health)
	mux.HandleFunc("GET /v1/ready/{$}", h.ready)
	mux.Handle("GET /metrics", promhttp.Handler())
}

type errorResponse struct {
	Error    domain.Kind      `json:"error"`
	Message  string           `json:"message"`
	Shipment *domain.Shipment `json:"shipment,omitempty"`
}

func (h *ShippingHandler) createShipment(w http.ResponseWriter, r *http.Request) {
	var req application.CreateShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.NewError(domain.KindValidation, "invalid request body: %v", err), nil)
		return
	}

	resp, err := h.service.CreateShipment(r.Context(), &req)
	if err != nil {
		var shipment *domain.Shipment
		if resp != nil {
			shipment = resp.Shipment
		}
		writeError(w, r, err, shipment)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Shipment)
}

func (h *ShippingHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req application.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.NewError(domain.KindValidation, "invalid request body: %v", err), nil)
		return
	}
	req.ShipmentID = id

	shipment, err := h.service.UpdateStatus(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

func (h *ShippingHandler) getShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	shipment, err := h.service.GetShipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

func (h *ShippingHandler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready 检查存储连通性，并同步健康指标
func (h *ShippingHandler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		metrics.HealthStatus.Set(0)
		logger.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		return
	}
	metrics.HealthStatus.Set(1)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, domain.NewError(domain.KindNotFound, "shipment %q not found", r.PathValue("id")), nil)
		return 0, false
	}
	return id, true
}

// writeError NotFound 返回 404，其余领域错误 400，未分类错误 500
func writeError(w http.ResponseWriter, r *http.Request, err error, shipment *domain.Shipment) {
	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unexpected error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "INTERNAL_ERROR", Message: "internal server error"})
		return
	}
	code := http.StatusBadRequest
	if de.Kind == domain.KindNotFound {
		code = http.StatusNotFound
	}
	writeJSON(w, code, errorResponse{Error: de.Kind, Message: de.Message, Shipment: shipment})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
