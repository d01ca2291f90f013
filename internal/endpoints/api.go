package endpoints

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status    bool        `json:"status"`
	Value     interface{} `json:"value,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode int         `json:"error_code"`
}

func (res APIResponse) WriteErrorResponse(w http.ResponseWriter, err error, statusCode int) {
	res.Status = false
	res.Value = nil
	res.Error = err.Error()
	res.ErrorCode = GetErrorCode(err)

	res.write(w, statusCode)
}

func (res APIResponse) WriteResultResponse(w http.ResponseWriter, result interface{}) {
	res.Status = true
	res.Value = result
	res.Error = ""
	res.ErrorCode = GetErrorCode(nil)

	res.write(w, http.StatusOK)
}

func (res APIResponse) write(w http.ResponseWriter, statusCode int) {
	body, err := json.Marshal(res)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(APIResponse{Error: err.Error(), ErrorCode: API_FAILURE})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(statusCode)
	w.Write(body)
}
