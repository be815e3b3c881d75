package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	applogger "Consensus/pkg/logger"

	"github.com/labstack/echo/v4"
)

const stackSize = 4 << 10

// Recover turns a handler panic into a 500 envelope and logs the stack.
// Nothing is written if the handler already committed a response.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				l.Error("handler panic",
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("method", c.Request().Method),
					applogger.String("path", c.Path()),
					applogger.String("stack", string(stack)),
				)

				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data": []map[string]string{{
						"code":    "ERR_INTERNAL",
						"message": "unexpected server error",
					}},
				})
			}()
			return next(c)
		}
	}
}
