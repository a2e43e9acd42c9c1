// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-video-source-finder/internal/core/model"
	"github.com/jaycherian/gcp-go-video-source-finder/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		SearchRouter(apiV1)
		VideoRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Wait for an interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed", "error", err)
	}

	log.Println("Server exiting")
}

// SearchRouter sets up the find-source and stats routes.
func SearchRouter(r *gin.RouterGroup) {
	r.GET("/search", func(c *gin.Context) {
		snippet := c.Query("s")
		if len(snippet) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter s"})
			return
		}

		result, err := state.searchService.FindSource(c.Request.Context(), snippet)
		if err != nil {
			if errors.Is(err, model.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var mismatch *model.EmbeddingVersionMismatchError
			if errors.As(err, &mismatch) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			slog.Error("find source failed", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		if result == nil {
			// The snippet could not be located anywhere: not an error, just
			// an empty answer.
			c.JSON(http.StatusNotFound, gin.H{})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/stats", func(c *gin.Context) {
		stats, err := state.searchService.Stats(c.Request.Context())
		if err != nil {
			slog.Error("stats failed", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}

// VideoRouter sets up the manual add-video route, which indexes one video
// synchronously without going through discovery.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.POST("/:id", func(c *gin.Context) {
			videoId := c.Param("id")

			count, err := state.indexer.IndexVideo(c.Request.Context(), videoId)
			if err != nil {
				if model.IsAcquisitionError(err) {
					c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
				slog.Error("manual index failed", "video_id", videoId, "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, gin.H{"video_id": videoId, "chunk_count": count})
		})
	}
}
