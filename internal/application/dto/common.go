package dto

// ErrorResponse cuerpo de error de /api. El webhook responde {"error": ...} por contrato del gateway.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse respuesta mínima de comandos.
type SuccessResponse struct {
	Success bool `json:"success"`
}
