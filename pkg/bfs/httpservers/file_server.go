package httpservers

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aohorodnyk/mimeheader"
	"github.com/buildbarn/bb-bfs/pkg/bfs"
	"github.com/buildbarn/bb-bfs/pkg/fileio"
	bb_http "github.com/buildbarn/bb-bfs/pkg/http"
	"github.com/buildbarn/bb-bfs/pkg/util"
	"github.com/gorilla/mux"
	"github.com/zeebo/blake3"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var listMediaTypes = []string{"application/json", "text/plain"}

type fileServer struct {
	fileSystem              bfs.FileSystem
	maximumMessageSizeBytes int64
}

// NewFileServer creates an HTTP handler that exposes the files stored
// in a FileSystem:
//
//   - GET /files lists all files, either as JSON or as plain text.
//   - GET /files/{name}?offset=&length= reads (part of) a file.
//   - PUT /files/{name} replaces the contents of a file.
//   - POST /files/{name}?offset= overwrites part of a file, creating it
//     if it does not exist.
//   - DELETE /files/{name} removes a file.
//
// Request bodies may be compressed using Zstandard. Both request and
// response bodies are limited to maximumMessageSizeBytes.
func NewFileServer(fileSystem bfs.FileSystem, maximumMessageSizeBytes int64) http.Handler {
	s := &fileServer{
		fileSystem:              fileSystem,
		maximumMessageSizeBytes: maximumMessageSizeBytes,
	}
	router := mux.NewRouter()
	router.HandleFunc("/files", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/files/{name}", s.handleRead).Methods(http.MethodGet)
	router.HandleFunc("/files/{name}", s.handleReplace).Methods(http.MethodPut)
	router.HandleFunc("/files/{name}", s.handleUpdate).Methods(http.MethodPost)
	router.HandleFunc("/files/{name}", s.handleRemove).Methods(http.MethodDelete)
	return router
}

func getOffset(r *http.Request, key string) (int64, bool, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil || v < 0 {
		return 0, false, status.Errorf(codes.InvalidArgument, "Invalid %s %#v", key, value)
	}
	return v, true, nil
}

// withFile opens a file, calls a function against it and closes it
// afterwards.
func (s *fileServer) withFile(fd fileio.Descriptor, err error, f func(fd fileio.Descriptor) error) error {
	if err != nil {
		return err
	}
	err = f(fd)
	if closeErr := s.fileSystem.Close(fd); closeErr != nil {
		if err == nil {
			return closeErr
		}
		return util.StatusFromMultiple([]error{err, closeErr})
	}
	return err
}

// readBody reads the body of a request, decompressing it if needed.
func (s *fileServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, s.maximumMessageSizeBytes)
	switch encoding := r.Header.Get("Content-Encoding"); encoding {
	case "", "identity":
	case "zstd":
		decompressed, err := util.NewZstdReadCloser(body, s.maximumMessageSizeBytes)
		if err != nil {
			return nil, util.StatusWrapWithCode(err, codes.InvalidArgument, "Failed to create Zstandard decoder")
		}
		defer decompressed.Close()
		body = decompressed
	default:
		return nil, status.Errorf(codes.InvalidArgument, "Unsupported content encoding %#v", encoding)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, status.Errorf(codes.ResourceExhausted, "Request body exceeds the maximum message size of %d bytes", s.maximumMessageSizeBytes)
		}
		return nil, status.Errorf(codes.InvalidArgument, "Failed to read request body: %s", err)
	}
	return data, nil
}

func (s *fileServer) handleList(w http.ResponseWriter, r *http.Request) {
	mediaType := listMediaTypes[0]
	if accept := r.Header.Get("Accept"); accept != "" {
		var ok bool
		if _, mediaType, ok = mimeheader.ParseAcceptHeader(accept).Negotiate(listMediaTypes, ""); !ok {
			http.Error(w, fmt.Sprintf("Client does not accept media types %v", listMediaTypes), http.StatusNotAcceptable)
			return
		}
	}

	files, err := s.fileSystem.List()
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	w.Header().Set("Content-Type", mediaType)
	if mediaType == "text/plain" {
		for _, file := range files {
			fmt.Fprintf(w, "%s\t%d\n", file.Name, file.SizeBytes)
		}
	} else {
		json.NewEncoder(w).Encode(files)
	}
}

func (s *fileServer) handleRead(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	offset, _, err := getOffset(r, "offset")
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	length, hasLength, err := getOffset(r, "length")
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}

	var data []byte
	fd, err := s.fileSystem.Open(name)
	if err := s.withFile(fd, err, func(fd fileio.Descriptor) error {
		if !hasLength {
			sizeBytes, err := s.fileSystem.Size(fd)
			if err != nil {
				return err
			}
			length = max(sizeBytes-offset, 0)
		}
		if length > s.maximumMessageSizeBytes {
			return status.Errorf(codes.ResourceExhausted, "Response of %d bytes exceeds the maximum message size of %d bytes", length, s.maximumMessageSizeBytes)
		}
		if err := s.fileSystem.Seek(fd, offset, fileio.SeekStart); err != nil {
			return err
		}
		data = make([]byte, length)
		n, err := s.fileSystem.Read(fd, data)
		data = data[:n]
		return err
	}); err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}

	digest := blake3.Sum256(data)
	etag := "\"" + hex.EncodeToString(digest[:]) + "\""
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *fileServer) handleReplace(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	fd, err := s.fileSystem.Create(mux.Vars(r)["name"])
	if err := s.withFile(fd, err, func(fd fileio.Descriptor) error {
		return s.fileSystem.Write(fd, data)
	}); err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *fileServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	offset, _, err := getOffset(r, "offset")
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}

	fd, err := s.fileSystem.Open(name)
	if status.Code(err) == codes.NotFound {
		fd, err = s.fileSystem.Create(name)
	}
	if err := s.withFile(fd, err, func(fd fileio.Descriptor) error {
		if err := s.fileSystem.Seek(fd, offset, fileio.SeekStart); err != nil {
			return err
		}
		return s.fileSystem.Write(fd, data)
	}); err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *fileServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.fileSystem.Remove(mux.Vars(r)["name"]); err != nil {
		bb_http.WriteStatusError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
