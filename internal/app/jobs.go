package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talkincode/papeleria/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 1h", func() {
		a.SchedPruneOrphanUploads()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedPruneOrphanUploads removes uploaded photos no product row
// references anymore. Fresh files are kept so an in-flight upload is
// never collected between write and row insert.
func (a *Application) SchedPruneOrphanUploads() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	uploadsDir := a.appConfig.GetUploadsDir()
	entries, err := os.ReadDir(uploadsDir)
	if err != nil {
		return
	}

	var fotos []string
	if err := a.gormDB.Model(&domain.Product{}).
		Where("foto LIKE ?", "/uploads/%").
		Pluck("foto", &fotos).Error; err != nil {
		zap.L().Error("prune uploads: query failed", zap.Error(err))
		return
	}
	referenced := make(map[string]bool, len(fotos))
	for _, f := range fotos {
		referenced[strings.TrimPrefix(f, "/uploads/")] = true
	}

	pruned := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < 24*time.Hour {
			continue
		}
		if err := os.Remove(filepath.Join(uploadsDir, entry.Name())); err != nil {
			zap.L().Warn("prune uploads: remove failed",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		pruned++
	}
	if pruned > 0 {
		zap.L().Info("pruned orphan uploads", zap.Int("count", pruned))
	}
}
