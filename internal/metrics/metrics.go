package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultNotFound = "not_found"
)

var (
	BlobUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traveljournal_blob_uploads_total",
		Help: "Blob store uploads by backend and result",
	}, []string{"backend", "result"})

	BlobDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traveljournal_blob_deletes_total",
		Help: "Blob store deletes by backend and result",
	}, []string{"backend", "result"})

	OrphanedBlobs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traveljournal_orphaned_blobs_total",
		Help: "Blobs whose delete failed after the database reference was dropped",
	})

	EntryTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traveljournal_entry_transitions_total",
		Help: "Entry lifecycle operations that completed",
	}, []string{"op"})
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(BlobUploads, BlobDeletes, OrphanedBlobs, EntryTransitions)
	})
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
