package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/soundvault/pkg/middleware"
)

// SchedulerJobs 返回所有定时任务信息.
//
//	@Summary	定时任务列表
//	@Tags		定时任务
//	@Produce	json
//	@Success	200	{object}	map[string]any	"jobs"
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusOK, gin.H{"jobs": []any{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行一次指定任务.
//
//	@Summary	立即执行任务
//	@Tags		定时任务
//	@Produce	json
//	@Param		name	path		string				true	"任务名称"
//	@Success	202		{object}	map[string]string	"job triggered"
//	@Failure	404		{object}	map[string]string	"任务不存在"
//	@Failure	503		{object}	map[string]string	"调度器未启动"
//	@Router		/api/v1/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}
