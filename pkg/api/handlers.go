package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/drivelog/pkg/codec"
	"github.com/ssargent/drivelog/pkg/controller"
	"github.com/ssargent/drivelog/pkg/storage"
)

const (
	// MessageContentType is the media type of a raw protocol message
	MessageContentType = "application/octet-stream"

	defaultFrameLimit = 50
	maxFrameLimit     = 500
)

// handleHealth godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Mode: string(s.ctrl.Mode())}
	if s.frames != nil {
		n, err := s.frames.Count()
		if err != nil {
			sendError(w, fmt.Sprintf("Failed to count frames: %v", err), http.StatusServiceUnavailable)
			return
		}
		resp.Frames = n
		s.metrics.UpdateFrameCount(n)
	}
	sendSuccess(w, resp)
}

// handleMessage godoc
//
//	@Summary		Exchange one protocol message
//	@Tags			device
//	@Accept			octet-stream
//	@Produce		octet-stream
//	@Success		200	{string}	byte
//	@Failure		400	{object}	APIResponse
//	@Failure		422	{object}	APIResponse
//	@Router			/messages [post]
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.RecordDecodeError("too_large")
			sendError(w, "Message too large", http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	res, err := s.ctrl.Handle(body)
	if err != nil {
		reason, status := classifyMessageError(err)
		s.metrics.RecordDecodeError(reason)
		if status == http.StatusInternalServerError {
			s.logger.Error().Err(err).Msg("handle message")
		}
		sendError(w, err.Error(), status)
		return
	}

	imageSize := 0
	if data, ok := res.Request.(*codec.ClientData); ok {
		imageSize = len(data.Image)
	}
	s.metrics.RecordMessage(res.Request.Type().String(), res.ReplyFor.String(), imageSize)
	if res.SampleID != ksuid.Nil {
		s.metrics.RecordSampleStored()
	}

	w.Header().Set("Content-Type", MessageContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Reply)
}

// classifyMessageError maps a Handle failure to a metrics label and status
func classifyMessageError(err error) (string, int) {
	switch {
	case errors.Is(err, codec.ErrBufferTooShort):
		return "short_buffer", http.StatusBadRequest
	case errors.Is(err, codec.ErrUnknownMessageType):
		return "unknown_type", http.StatusBadRequest
	case errors.Is(err, controller.ErrUnexpectedMessage):
		return "unexpected_type", http.StatusUnprocessableEntity
	default:
		return "internal", http.StatusInternalServerError
	}
}

// handleGetCommand godoc
//
//	@Summary		Current operator command
//	@Tags			operator
//	@Produce		json
//	@Success		200	{object}	CommandResponse
//	@Router			/command [get]
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, newCommandResponse(s.ctrl.Command()))
}

// handleSetCommand godoc
//
//	@Summary		Set the operator command
//	@Tags			operator
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CommandRequest	true	"Speeds"
//	@Success		200		{object}	CommandResponse
//	@Failure		400		{object}	APIResponse
//	@Router			/command [put]
//	@Security		ApiKeyAuth
func (s *Server) handleSetCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	s.ctrl.SetCommand(req.LeftSpeed, req.RightSpeed)
	left, right := s.ctrl.Command()
	s.logger.Info().Int("left", left).Int("right", right).Msg("operator command set")
	sendSuccess(w, newCommandResponse(left, right))
}

// handleGetMode godoc
//
//	@Summary		Current reply mode
//	@Tags			operator
//	@Produce		json
//	@Success		200	{object}	ModeRequest
//	@Router			/mode [get]
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, ModeRequest{Mode: string(s.ctrl.Mode())})
}

// handleSetMode godoc
//
//	@Summary		Switch reply mode
//	@Tags			operator
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ModeRequest	true	"Mode"
//	@Success		200		{object}	ModeRequest
//	@Failure		400		{object}	APIResponse
//	@Router			/mode [put]
//	@Security		ApiKeyAuth
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	mode, err := controller.ParseMode(req.Mode)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.ctrl.SetMode(mode); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sendSuccess(w, ModeRequest{Mode: string(mode)})
}

// handleListFrames godoc
//
//	@Summary		List training frames
//	@Tags			frames
//	@Produce		json
//	@Param			after	query		string	false	"Return frames stored after this id"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	FrameList
//	@Failure		400		{object}	APIResponse
//	@Router			/frames [get]
func (s *Server) handleListFrames(w http.ResponseWriter, r *http.Request) {
	if !s.requireFrames(w) {
		return
	}

	after := ksuid.Nil
	if raw := r.URL.Query().Get("after"); raw != "" {
		id, err := ksuid.Parse(raw)
		if err != nil {
			sendError(w, "Invalid after cursor", http.StatusBadRequest)
			return
		}
		after = id
	}

	limit := defaultFrameLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxFrameLimit)
	}

	samples, err := s.frames.List(after, limit)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list frames: %v", err), http.StatusInternalServerError)
		return
	}

	resp := FrameList{Frames: make([]FrameSummary, 0, len(samples))}
	for _, sample := range samples {
		resp.Frames = append(resp.Frames, summarize(sample))
	}
	if len(samples) == limit {
		resp.Next = samples[len(samples)-1].ID.String()
	}
	sendSuccess(w, resp)
}

// handleGetFrame godoc
//
//	@Summary		Describe one training frame
//	@Tags			frames
//	@Produce		json
//	@Param			id	path		string	true	"Frame id"
//	@Success		200	{object}	FrameSummary
//	@Failure		404	{object}	APIResponse
//	@Router			/frames/{id} [get]
func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.lookupFrame(w, r)
	if !ok {
		return
	}
	sendSuccess(w, summarize(sample))
}

// handleFrameImage godoc
//
//	@Summary		Camera frame of one training sample
//	@Tags			frames
//	@Produce		jpeg
//	@Param			id	path		string	true	"Frame id"
//	@Success		200	{string}	byte
//	@Failure		404	{object}	APIResponse
//	@Router			/frames/{id}/image [get]
func (s *Server) handleFrameImage(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.lookupFrame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(sample.Data.Image)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sample.Data.Image)
}

func (s *Server) requireFrames(w http.ResponseWriter) bool {
	if s.frames == nil {
		sendError(w, "Frame store not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) lookupFrame(w http.ResponseWriter, r *http.Request) (*storage.Sample, bool) {
	if !s.requireFrames(w) {
		return nil, false
	}
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid frame id", http.StatusBadRequest)
		return nil, false
	}
	sample, err := s.frames.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrSampleNotFound) {
			sendError(w, "Frame not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to get frame: %v", err), http.StatusInternalServerError)
		}
		return nil, false
	}
	return sample, true
}

func summarize(sample *storage.Sample) FrameSummary {
	return FrameSummary{
		ID:            sample.ID.String(),
		StoredAt:      sample.StoredAt(),
		MessageID:     sample.Data.Header.MessageID,
		Timestamp:     sample.Data.Header.Timestamp,
		Accelerometer: sample.Data.Accelerometer,
		ImageBytes:    len(sample.Data.Image),
		LeftSpeed:     codec.DecodeSpeed(sample.Command[0]),
		RightSpeed:    codec.DecodeSpeed(sample.Command[1]),
	}
}
