package service

import (
	"context"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// FileService wraps recording and snapshot file management.
type FileService struct {
	caller rpc.Caller
}

// NewFileService creates a FileService.
func NewFileService(c rpc.Caller) *FileService {
	return &FileService{caller: c}
}

// ListRecordings pages through stored recordings.
func (s *FileService) ListRecordings(ctx context.Context, limit, offset int) (model.FileList, error) {
	return s.list(ctx, MethodListRecordings, limit, offset)
}

// ListSnapshots pages through stored snapshots.
func (s *FileService) ListSnapshots(ctx context.Context, limit, offset int) (model.FileList, error) {
	return s.list(ctx, MethodListSnapshots, limit, offset)
}

func (s *FileService) list(ctx context.Context, m rpc.Method[ListParams, model.FileList], limit, offset int) (model.FileList, error) {
	if err := validatePage(limit, offset); err != nil {
		return model.FileList{}, err
	}
	list, err := invoke(ctx, s.caller, m, ListParams{Limit: limit, Offset: offset})
	if err != nil {
		return list, err
	}
	if list.Files == nil {
		list.Files = []model.FileInfo{}
	}
	return list, nil
}

// GetRecordingInfo returns metadata of one recording.
func (s *FileService) GetRecordingInfo(ctx context.Context, filename string) (model.FileInfo, error) {
	if err := validateFilename(filename); err != nil {
		return model.FileInfo{}, err
	}
	return invoke(ctx, s.caller, MethodGetRecordingInfo, FileParams{Filename: filename})
}

// GetSnapshotInfo returns metadata of one snapshot.
func (s *FileService) GetSnapshotInfo(ctx context.Context, filename string) (model.FileInfo, error) {
	if err := validateFilename(filename); err != nil {
		return model.FileInfo{}, err
	}
	return invoke(ctx, s.caller, MethodGetSnapshotInfo, FileParams{Filename: filename})
}

// DeleteRecording removes one recording.
func (s *FileService) DeleteRecording(ctx context.Context, filename string) (model.DeleteResult, error) {
	if err := validateFilename(filename); err != nil {
		return model.DeleteResult{}, err
	}
	return invoke(ctx, s.caller, MethodDeleteRecording, FileParams{Filename: filename})
}

// DeleteSnapshot removes one snapshot.
func (s *FileService) DeleteSnapshot(ctx context.Context, filename string) (model.DeleteResult, error) {
	if err := validateFilename(filename); err != nil {
		return model.DeleteResult{}, err
	}
	return invoke(ctx, s.caller, MethodDeleteSnapshot, FileParams{Filename: filename})
}
