package api

import (
	"fmt"

	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/apperror"
	"github.com/FpMarinov/phorest-techtest-filip-marinov/internal/ingestion"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// uuidParam reads a path parameter and parses it as a UUID.
func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	value := c.Param(name)
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.ArgumentTypeMismatch(
			fmt.Sprintf("cannot parse %q as a uuid", value)).WithCause(err)
	}
	return id, nil
}

// uploadFromRequest extracts the multipart "file" part of an upload request.
func uploadFromRequest(c echo.Context) (ingestion.Upload, func(), error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ingestion.Upload{}, nil, apperror.BadRequest("multipart part 'file' is required", nil).WithCause(err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return ingestion.Upload{}, nil, apperror.BadRequest("cannot open uploaded file", nil).WithCause(err)
	}

	upload := ingestion.Upload{
		Content:     src,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:        fileHeader.Size,
	}
	return upload, func() { src.Close() }, nil
}
