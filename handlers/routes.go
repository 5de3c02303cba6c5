package handlers

import "github.com/gin-gonic/gin"

// RegisterFileRoutes mounts the file endpoints behind the given auth middleware
func RegisterFileRoutes(r *gin.Engine, fileHandler *FileHandler, auth gin.HandlerFunc) {
	api := r.Group("/api", auth)
	{
		api.POST("/files/upload", fileHandler.UploadFile)
		api.GET("/files", fileHandler.ListFiles)
		api.DELETE("/files/:id", fileHandler.DeleteFile)
		api.POST("/files/:id/transcribe", fileHandler.TranscribeFile)
	}

	r.GET("/download_file/:code", auth, fileHandler.DownloadFile)

	// Link-style delete used by the upload page
	r.GET("/upload_file/delete/:id", auth, fileHandler.DeleteFile)
}
