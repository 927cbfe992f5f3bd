package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/compasshq/lp-backend/internal/inquiry"
	"github.com/compasshq/lp-backend/internal/model"
	"github.com/compasshq/lp-backend/internal/security"
)

// inquirySchema はEnterprise相談リクエストのボディ形状を検証するスキーマ。
// 値の意味的な検証（人数の下限など）はフロー側のValidateが行う。
var inquirySchema = jsonschema.MustCompileString("enterprise-inquiry.json", `{
	"type": "object",
	"required": ["companyName", "contactName", "email", "teamSize", "message"],
	"properties": {
		"companyName": {"type": "string"},
		"contactName": {"type": "string"},
		"email":       {"type": "string"},
		"teamSize":    {"type": "string"},
		"phone":       {"type": "string"},
		"message":     {"type": "string"}
	}
}`)

// InquiryHandler はEnterprise相談のHTTPハンドラー。
type InquiryHandler struct {
	submitter inquiry.Submitter
	sanitizer security.TextSanitizerService
	maxBody   int64
}

// NewInquiryHandler はInquiryHandlerを生成する。
func NewInquiryHandler(submitter inquiry.Submitter, sanitizer security.TextSanitizerService, maxBody int64) *InquiryHandler {
	return &InquiryHandler{
		submitter: submitter,
		sanitizer: sanitizer,
		maxBody:   maxBody,
	}
}

// inquiryResponse は相談受け付け成功時のレスポンス。
type inquiryResponse struct {
	Status string `json:"status"`
}

// Submit はEnterprise相談フォームの送信を受け付ける。
//
// ボディ形状はJSONスキーマで検証し、自由入力のテキストはすべてサニタイズ
// してから上流に転送する。
// POST /api/enterprise-inquiry
func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBody))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの読み取りに失敗しました"))
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := inquirySchema.Validate(raw); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInquiryError("必須項目が不足しています"))
		return
	}

	var form model.EnterpriseInquiry
	if err := json.Unmarshal(body, &form); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	form.CompanyName = h.sanitizer.SanitizeText(form.CompanyName)
	form.ContactName = h.sanitizer.SanitizeText(form.ContactName)
	form.Email = h.sanitizer.SanitizeText(form.Email)
	form.TeamSize = h.sanitizer.SanitizeText(form.TeamSize)
	form.Phone = h.sanitizer.SanitizeText(form.Phone)
	form.Message = h.sanitizer.SanitizeText(form.Message)

	flow := inquiry.NewFlow(h.submitter)
	if err := flow.Submit(r.Context(), form); err != nil {
		handleFlowError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inquiryResponse{Status: "ok"})
}
