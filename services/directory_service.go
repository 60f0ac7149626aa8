package services

import (
	"concord/domain"
	"concord/repositories"
)

type IDirectoryService interface {
	CreateServer(name string) (domain.Server, error)
	ListServers() ([]domain.Server, error)
	CreateChannel(serverID int64, name string) (domain.Channel, error)
	ListChannels(serverID int64) ([]domain.Channel, error)
}

type DirectoryService struct {
	directory repositories.IDirectoryRepository
}

func NewDirectoryService(directory repositories.IDirectoryRepository) *DirectoryService {
	return &DirectoryService{directory: directory}
}

func (s *DirectoryService) CreateServer(name string) (domain.Server, error) {
	if name == "" {
		name = "Server"
	}
	return s.directory.CreateServer(name)
}

func (s *DirectoryService) ListServers() ([]domain.Server, error) {
	return s.directory.ListServers()
}

func (s *DirectoryService) CreateChannel(serverID int64, name string) (domain.Channel, error) {
	if name == "" {
		name = "channel"
	}
	return s.directory.CreateChannel(serverID, name)
}

func (s *DirectoryService) ListChannels(serverID int64) ([]domain.Channel, error) {
	return s.directory.ListChannels(serverID)
}
