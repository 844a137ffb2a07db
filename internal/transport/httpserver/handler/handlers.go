package handler

import (
	navctxdomain "diamond-app-go/internal/domain/navctx"
	notesdomain "diamond-app-go/internal/domain/notes"
	projectsdomain "diamond-app-go/internal/domain/projects"
	statsdomain "diamond-app-go/internal/domain/stats"
	tagsdomain "diamond-app-go/internal/domain/tags"
	"diamond-app-go/internal/transport/httpserver/handler/common"
	"diamond-app-go/pkg/logger"
)

type Handlers struct {
	Common   *common.Handlers
	Projects *projectsdomain.Service
	Notes    *notesdomain.Service
	Tags     *tagsdomain.Service
	Stats    *statsdomain.Service
	NavCtx   *navctxdomain.Service
	log      logger.Logger
}

func New(projects *projectsdomain.Service, notes *notesdomain.Service, tags *tagsdomain.Service, stats *statsdomain.Service, navctx *navctxdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Common:   common.New(log),
		Projects: projects,
		Notes:    notes,
		Tags:     tags,
		Stats:    stats,
		NavCtx:   navctx,
		log:      log,
	}
}
