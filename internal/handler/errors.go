package handler

import (
	"errors"
	"net/http"

	"github.com/compasshq/lp-backend/internal/middleware"
	"github.com/compasshq/lp-backend/internal/model"
)

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleFlowError はフロー・クライアント層のエラーをHTTPステータスにマップする。
//
// 入力検証エラーは400、上流起因の失敗は502として返す。
// APIError以外のエラー（コンテキストキャンセル等）は500に落とす。
func handleFlowError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		middleware.WriteInternalServerError(w)
		return
	}

	statusCode := http.StatusBadGateway
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidTier,
		model.ErrCodeInvalidEmail,
		model.ErrCodeInvalidInquiry:
		statusCode = http.StatusBadRequest
	case model.ErrCodeInvalidFlowState:
		statusCode = http.StatusConflict
	}

	writeAPIErrorResponse(w, statusCode, apiErr)
}
