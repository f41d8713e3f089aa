// Package lbv1 defines the RPC surface shared by the coordinator, the
// workers and the edge: the message types, the JSON codec they travel
// with, and service descriptors for both gRPC services.
//
// Messages are plain Go structs with snake_case wire names. Both sides
// register the codec from this package; clients pin it per connection
// by dialing through Dial. There is no code generation step: the schema
// is this file.
package lbv1

// Status reports where a request sits in a worker's pipeline.
type Status int32

const (
	StatusQueued     Status = 0
	StatusProcessing Status = 1
	StatusCompleted  Status = 2
	StatusError      Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusProcessing:
		return "PROCESSING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// HardwareSpecs describes a worker host. PerformanceScore is derived
// from the other fields; see pkg/hardware.
type HardwareSpecs struct {
	CPUCores         int32   `json:"cpu_cores"`
	CPUFrequencyGHz  float64 `json:"cpu_frequency_ghz"`
	RAMGB            float64 `json:"ram_gb"`
	GPUInfo          string  `json:"gpu_info"`
	GPUMemoryGB      float64 `json:"gpu_memory_gb"`
	OSInfo           string  `json:"os_info"`
	PerformanceScore float64 `json:"performance_score"`
}

// WorkerInfo is the registration payload. Models lists the model
// identifiers installed on the worker (capability advertisement).
type WorkerInfo struct {
	WorkerID  string         `json:"worker_id"`
	Hostname  string         `json:"hostname"`
	IPAddress string         `json:"ip_address"`
	Specs     *HardwareSpecs `json:"specs"`
	Models    []string       `json:"models"`
}

// ModelInfo is one catalog entry as seen on the wire.
type ModelInfo struct {
	Name            string  `json:"name"`
	Parameters      int64   `json:"parameters"`
	SizeGB          float64 `json:"size_gb"`
	ComplexityScore int32   `json:"complexity_score"`
	SupportsVision  bool    `json:"supports_vision"`
}

// Registration answers RegisterWorker. ClientGroup is 1-based; lower
// numbers are stronger groups.
type Registration struct {
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	AssignedModel string     `json:"assigned_model"`
	ModelInfo     *ModelInfo `json:"model_info,omitempty"`
	TotalClients  int32      `json:"total_clients"`
	ClientGroup   int32      `json:"client_group"`
}

type DeregisterRequest struct {
	WorkerID string `json:"worker_id"`
}

type DeregisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Empty is the argument of parameterless RPCs.
type Empty struct{}

type ModelList struct {
	Models      []*ModelInfo `json:"models"`
	TotalModels int32        `json:"total_models"`
}

type WorkerAssignment struct {
	WorkerID      string `json:"worker_id"`
	AssignedModel string `json:"assigned_model"`
	Group         int32  `json:"group"`
}

type AssignmentList struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Assignments []*WorkerAssignment `json:"assignments"`
}

// AIRequest carries one prompt. On the coordinator surface it comes from
// the edge with AssignedModel empty; during fan-out the dispatcher fills
// AssignedModel per worker. Images are base64-encoded and are cleared
// for workers whose model is not vision-capable.
type AIRequest struct {
	RequestID     string   `json:"request_id"`
	Prompt        string   `json:"prompt"`
	AssignedModel string   `json:"assigned_model"`
	Timestamp     int64    `json:"timestamp"`
	Images        []string `json:"images,omitempty"`
}

type AIResponse struct {
	RequestID      string  `json:"request_id"`
	Success        bool    `json:"success"`
	ResponseText   string  `json:"response_text"`
	ProcessingTime float64 `json:"processing_time"`
	ClientID       string  `json:"client_id"`
	ModelUsed      string  `json:"model_used"`
	Timestamp      int64   `json:"timestamp"`
}

type StatusRequest struct {
	RequestID string `json:"request_id"`
	ClientID  string `json:"client_id"`
}

type StatusResponse struct {
	Status                    Status  `json:"status"`
	ProgressPercentage        float64 `json:"progress_percentage"`
	CurrentStep               string  `json:"current_step"`
	EstimatedRemainingSeconds int32   `json:"estimated_remaining_seconds"`
}

type HealthStatus struct {
	Healthy          bool   `json:"healthy"`
	Message          string `json:"message"`
	ConnectedClients int32  `json:"connected_clients"`
	ActiveModels     int32  `json:"active_models"`
}
