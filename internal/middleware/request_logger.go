package middleware

import (
	"time"

	"tableorder/internal/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger はリクエストIDをcontextへ入れ、1リクエスト1行でログを出す。
// echoのRequestIDミドルウェアの後に置く。
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), rid)))

			err := next(c)
			if err != nil {
				// echoのエラーハンドラにステータスを決めさせる
				c.Error(err)
			}

			status := c.Response().Status
			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
