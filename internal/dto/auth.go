package dto

// ── 认证模块 DTO ──

// LoginRequest 管理员 PIN 登录请求
type LoginRequest struct {
	PIN string `json:"pin"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	ExpiresIn   int              `json:"expires_in"` // Access Token 有效期（秒）
	Employee    EmployeeResponse `json:"employee"`
}
