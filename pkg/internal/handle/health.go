package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/soundvault/pkg/context"
)

const timeout = 2 * time.Second

func unhealthy(c *gin.Context, component, reason string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": reason})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string	"ok"
//	@Failure	503	{object}	map[string]string	"unhealthy"
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil || dbc.DB == nil {
		unhealthy(c, "db", "db client not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "db", "status": "ok"})
}

// HealthStorage 音频存储健康检查，s3 检查 bucket，本地存储尝试遍历根目录.
//
//	@Summary	音频存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string	"ok"
//	@Failure	503	{object}	map[string]string	"unhealthy"
//	@Router		/api/v1/health/storage [get]
func HealthStorage(c *gin.Context) {
	mgr := ctxPkg.GetManager(c.Request.Context())
	if mgr == nil || mgr.GetBlob() == nil {
		unhealthy(c, "storage", "storage not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := mgr.HealthCheckStorage(ctx); err != nil {
		unhealthy(c, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "storage", "status": "ok", "strategy": mgr.GetBlob().Name()})
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string	"ok"
//	@Failure	503	{object}	map[string]string	"unhealthy"
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if mqc == nil {
		unhealthy(c, "mq", "mq client not initialized")
		return
	}

	if err := mqc.HealthCheck(c.Request.Context()); err != nil {
		unhealthy(c, "mq", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": "mq", "status": "ok", "type": string(mqc.Type())})
}
