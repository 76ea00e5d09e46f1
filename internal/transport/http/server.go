package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/pager"
	"mintyfresh/internal/permission"
	mintsvc "mintyfresh/internal/services/mint_service"
	sharesvc "mintyfresh/internal/services/share_service"
	viewersvc "mintyfresh/internal/services/viewer_service"
	"mintyfresh/internal/storage"
	"mintyfresh/internal/transport/http/dto"
	"mintyfresh/internal/transport/http/dto/response"

	ws "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName = "session"
	walletKey   = "wallet"
)

type GalleryService interface {
	Gallery(ctx context.Context) (*dto.GalleryResponse, error)
	Reload(ctx context.Context) (*dto.GalleryResponse, error)
	Watch(ctx context.Context) (<-chan *dto.GalleryResponse, error)
	AddPhoto(ctx context.Context, file *multipart.FileHeader) (*dto.MediaItemResponse, error)
	DeletePhoto(ctx context.Context, path string) (*dto.GalleryResponse, error)
	MediaFile(ctx context.Context, path string) (string, error)
}

type MintService interface {
	Mints(ctx context.Context, address string) *dto.MintsResponse
	Reload(ctx context.Context, address string) *dto.MintsResponse
	Watch(ctx context.Context, address string) (<-chan *dto.MintsResponse, error)
	RecordMint(ctx context.Context, req dto.RecordMintRequest) (*dto.MintItemResponse, error)
	GetMint(ctx context.Context, id string) (*dto.MintItemResponse, error)
}

type ViewerService interface {
	Open(ctx context.Context, req dto.OpenViewerRequest, scope string) (*dto.ViewerResponse, error)
	Viewer(id string) (*dto.ViewerResponse, error)
	Move(id string, index int) (*dto.ViewerResponse, error)
	Share(id string) (*dto.ShareResponse, error)
	Close(id string) error
}

type ShareService interface {
	Resolve(token string) (*dto.ShareResponse, error)
}

type Routers struct {
	log            *slog.Logger
	GalleryService GalleryService
	MintService    MintService
	ViewerService  ViewerService
	ShareService   ShareService

	// originPatterns хосты, которым разрешено открывать потоки помимо своего
	originPatterns []string
}

func NewRouter(
	log *slog.Logger,
	galleryService GalleryService,
	mintService MintService,
	viewerService ViewerService,
	shareService ShareService,
	originPatterns []string,
) *Routers {
	return &Routers{
		log:            log,
		GalleryService: galleryService,
		MintService:    mintService,
		ViewerService:  viewerService,
		ShareService:   shareService,
		originPatterns: originPatterns,
	}
}

// GetGallery godoc
// @Summary Галерея устройства
// @Description Список снимков, новые первыми. При отказе в доступе возвращает тексты экрана объяснения.
// @Tags gallery
// @Produce json
// @Success 200 {object} response.Response{data=dto.GalleryResponse}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/gallery [get]
func (r *Routers) GetGallery(c echo.Context) error {
	const op = "http.routers.GetGallery"

	gallery, err := r.GalleryService.Gallery(c.Request().Context())
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

// ReloadGallery godoc
// @Summary Перечитать галерею
// @Tags gallery
// @Produce json
// @Success 200 {object} response.Response{data=dto.GalleryResponse}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/gallery/reload [post]
func (r *Routers) ReloadGallery(c echo.Context) error {
	const op = "http.routers.ReloadGallery"

	gallery, err := r.GalleryService.Reload(c.Request().Context())
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

// UploadPhoto godoc
// @Summary Снимок с камеры
// @Description Сохраняет снимок в каталог Camera галереи
// @Tags gallery
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Изображение"
// @Success 201 {object} response.Response{data=dto.MediaItemResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 415 {object} response.ErrorResponse
// @Router /api/v1/gallery/photos [post]
func (r *Routers) UploadPhoto(c echo.Context) error {
	const op = "http.routers.UploadPhoto"

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", "file is required"))
	}

	item, err := r.GalleryService.AddPhoto(c.Request().Context(), file)
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(item))
}

// GetMedia godoc
// @Summary Файл снимка галереи
// @Tags gallery
// @Produce image/jpeg,image/png
// @Param path path string true "Путь относительно корня галереи"
// @Success 200 {file} binary
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/gallery/media/{path} [get]
func (r *Routers) GetMedia(c echo.Context) error {
	const op = "http.routers.GetMedia"

	full, err := r.GalleryService.MediaFile(c.Request().Context(), c.Param("*"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.File(full)
}

// DeleteMedia godoc
// @Summary Удалить снимок из галереи
// @Tags gallery
// @Produce json
// @Param path path string true "Путь относительно корня галереи"
// @Success 200 {object} response.Response{data=dto.GalleryResponse}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/gallery/media/{path} [delete]
func (r *Routers) DeleteMedia(c echo.Context) error {
	const op = "http.routers.DeleteMedia"

	gallery, err := r.GalleryService.DeletePhoto(c.Request().Context(), c.Param("*"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

// WatchGallery godoc
// @Summary Поток состояний галереи
// @Description WebSocket: текущее состояние и затем каждое изменение
// @Tags gallery
// @Router /api/v1/gallery/stream [get]
func (r *Routers) WatchGallery(c echo.Context) error {
	const op = "http.routers.WatchGallery"

	return stream(r, c, op, r.GalleryService.Watch)
}

// ConnectWallet godoc
// @Summary Подключить кошелек
// @Description Сохраняет адрес кошелька в сессии, экран минтов загружает его коллекцию
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body dto.ConnectWalletRequest true "Адрес кошелька"
// @Success 200 {object} response.Response{data=dto.MintsResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/wallet [post]
func (r *Routers) ConnectWallet(c echo.Context) error {
	const op = "http.routers.ConnectWallet"

	log := r.log.With(slog.String("op", op))

	var req dto.ConnectWalletRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		log.Warn("invalid wallet address", slog.String("address", req.Address))
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	if err := setWallet(c, req.Address); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	log.Info("wallet connected", slog.String("address", req.Address))

	return c.JSON(http.StatusOK, response.SuccessResponse(r.MintService.Mints(c.Request().Context(), req.Address)))
}

// DisconnectWallet godoc
// @Summary Отключить кошелек
// @Tags wallet
// @Success 204
// @Router /api/v1/wallet [delete]
func (r *Routers) DisconnectWallet(c echo.Context) error {
	const op = "http.routers.DisconnectWallet"

	if err := setWallet(c, ""); err != nil {
		r.log.Error("failed to save session", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrInternal)
	}

	return c.NoContent(http.StatusNoContent)
}

// GetMyMints godoc
// @Summary Минты подключенного кошелька
// @Description Без подключенного кошелька возвращает пустую коллекцию
// @Tags mints
// @Produce json
// @Success 200 {object} response.Response{data=dto.MintsResponse}
// @Router /api/v1/mints [get]
func (r *Routers) GetMyMints(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(r.MintService.Mints(c.Request().Context(), wallet(c))))
}

// GetMints godoc
// @Summary Минты кошелька
// @Tags mints
// @Produce json
// @Param address path string true "Адрес кошелька"
// @Success 200 {object} response.Response{data=dto.MintsResponse}
// @Router /api/v1/mints/{address} [get]
func (r *Routers) GetMints(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(r.MintService.Mints(c.Request().Context(), c.Param("address"))))
}

// ReloadMints godoc
// @Summary Перечитать минты кошелька
// @Tags mints
// @Produce json
// @Param address path string true "Адрес кошелька"
// @Success 200 {object} response.Response{data=dto.MintsResponse}
// @Router /api/v1/mints/{address}/reload [post]
func (r *Routers) ReloadMints(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(r.MintService.Reload(c.Request().Context(), c.Param("address"))))
}

// WatchMints godoc
// @Summary Поток минтов кошелька
// @Description WebSocket: текущая коллекция и затем каждое изменение
// @Tags mints
// @Param address path string true "Адрес кошелька"
// @Router /api/v1/mints/{address}/stream [get]
func (r *Routers) WatchMints(c echo.Context) error {
	const op = "http.routers.WatchMints"

	address := c.Param("address")

	return stream(r, c, op, func(ctx context.Context) (<-chan *dto.MintsResponse, error) {
		return r.MintService.Watch(ctx, address)
	})
}

// RecordMint godoc
// @Summary Записать новый минт
// @Tags mints
// @Accept json
// @Produce json
// @Param request body dto.RecordMintRequest true "Минт"
// @Success 201 {object} response.Response{data=dto.MintItemResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/mints [post]
func (r *Routers) RecordMint(c echo.Context) error {
	const op = "http.routers.RecordMint"

	var req dto.RecordMintRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	mint, err := r.MintService.RecordMint(c.Request().Context(), req)
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(mint))
}

// GetMint godoc
// @Summary Минт по адресу
// @Tags mints
// @Produce json
// @Param id path string true "Адрес минта"
// @Success 200 {object} response.Response{data=dto.MintItemResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/mint/{id} [get]
func (r *Routers) GetMint(c echo.Context) error {
	const op = "http.routers.GetMint"

	mint, err := r.MintService.GetMint(c.Request().Context(), c.Param("id"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(mint))
}

// OpenViewer godoc
// @Summary Открыть экран деталей
// @Description Создает пейджер по текущему снимку коллекции на позиции index
// @Tags viewers
// @Accept json
// @Produce json
// @Param request body dto.OpenViewerRequest true "Вид коллекции и позиция"
// @Success 201 {object} response.Response{data=dto.ViewerResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/viewers [post]
func (r *Routers) OpenViewer(c echo.Context) error {
	const op = "http.routers.OpenViewer"

	var req dto.OpenViewerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if req.Kind == dto.ViewerKindMint && req.Address == "" {
		req.Address = wallet(c)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	viewer, err := r.ViewerService.Open(c.Request().Context(), req, req.Address)
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(viewer))
}

// GetViewer godoc
// @Summary Состояние экрана деталей
// @Tags viewers
// @Produce json
// @Param id path string true "ID экрана"
// @Success 200 {object} response.Response{data=dto.ViewerResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/viewers/{id} [get]
func (r *Routers) GetViewer(c echo.Context) error {
	const op = "http.routers.GetViewer"

	viewer, err := r.ViewerService.Viewer(c.Param("id"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(viewer))
}

// MoveViewer godoc
// @Summary Переместить курсор
// @Description Индекс вне диапазона отклоняется
// @Tags viewers
// @Accept json
// @Produce json
// @Param id path string true "ID экрана"
// @Param request body dto.MoveViewerRequest true "Новая позиция"
// @Success 200 {object} response.Response{data=dto.ViewerResponse}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/viewers/{id}/position [put]
func (r *Routers) MoveViewer(c echo.Context) error {
	const op = "http.routers.MoveViewer"

	var req dto.MoveViewerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	}

	viewer, err := r.ViewerService.Move(c.Param("id"), *req.Index)
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(viewer))
}

// ShareViewer godoc
// @Summary Поделиться текущим элементом
// @Tags viewers
// @Produce json
// @Param id path string true "ID экрана"
// @Success 200 {object} response.Response{data=dto.ShareResponse}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/viewers/{id}/share [post]
func (r *Routers) ShareViewer(c echo.Context) error {
	const op = "http.routers.ShareViewer"

	share, err := r.ViewerService.Share(c.Param("id"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(share))
}

// CloseViewer godoc
// @Summary Закрыть экран деталей
// @Tags viewers
// @Param id path string true "ID экрана"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/viewers/{id} [delete]
func (r *Routers) CloseViewer(c echo.Context) error {
	const op = "http.routers.CloseViewer"

	if err := r.ViewerService.Close(c.Param("id")); err != nil {
		return r.fail(c, op, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// OpenShare godoc
// @Summary Открыть ссылку шаринга
// @Description Перенаправляет на медиа минта
// @Tags share
// @Param token path string true "Токен ссылки"
// @Success 302
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/share/{token} [get]
func (r *Routers) OpenShare(c echo.Context) error {
	const op = "http.routers.OpenShare"

	share, err := r.ShareService.Resolve(c.Param("token"))
	if err != nil {
		return r.fail(c, op, err)
	}

	return c.Redirect(http.StatusFound, share.MediaURL)
}

// stream отдает значения канала в WebSocket, пока клиент не закроет соединение
func stream[T any](r *Routers, c echo.Context, op string, watch func(ctx context.Context) (<-chan T, error)) error {
	log := r.log.With(slog.String("op", op))

	conn, err := ws.Accept(c.Response(), c.Request(), &ws.AcceptOptions{OriginPatterns: r.originPatterns})
	if err != nil {
		log.Warn("websocket upgrade failed", sl.Err(err))
		return nil
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(c.Request().Context())

	values, err := watch(ctx)
	if err != nil {
		code := ws.StatusInternalError
		if errors.Is(err, permission.ErrPermissionDenied) {
			code = ws.StatusPolicyViolation
		}
		log.Info("watch rejected", sl.Err(err))
		conn.Close(code, err.Error())
		return nil
	}

	log.Debug("stream opened")

	for v := range values {
		if err := wsjson.Write(ctx, conn, v); err != nil {
			log.Debug("stream closed by peer", sl.Err(err))
			return nil
		}
	}

	conn.Close(ws.StatusNormalClosure, "")

	return nil
}

// fail переводит ошибки сервисов в HTTP-ответы
func (r *Routers) fail(c echo.Context, op string, err error) error {
	log := r.log.With(slog.String("op", op))

	switch {
	case errors.Is(err, permission.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, response.ErrPermissionDenied)
	case errors.Is(err, pager.ErrInvalidIndex):
		return c.JSON(http.StatusUnprocessableEntity, response.ErrInvalidIndex)
	case errors.Is(err, pager.ErrEmpty):
		return c.JSON(http.StatusConflict, response.ErrViewerEmpty)
	case errors.Is(err, pager.ErrNotShareable):
		return c.JSON(http.StatusUnprocessableEntity, response.ErrNotShareable)
	case errors.Is(err, viewersvc.ErrUnknownKind):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails("invalid_request", err.Error()))
	case errors.Is(err, viewersvc.ErrViewerNotFound),
		errors.Is(err, mintsvc.ErrMintNotFound),
		errors.Is(err, sharesvc.ErrInvalidShareToken),
		errors.Is(err, storage.ErrFileNotFound),
		errors.Is(err, storage.ErrInvalidPath):
		return c.JSON(http.StatusNotFound, response.ErrorResponseWithDetails(response.ErrNotFound.Error, err.Error()))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails("file_too_large", err.Error()))
	case errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusUnsupportedMediaType, response.ErrorResponseWithDetails("invalid_file_type", err.Error()))
	}

	log.Error("request failed", sl.Err(err))

	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}

func wallet(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}

	address, _ := sess.Values[walletKey].(string)

	return address
}

func setWallet(c echo.Context, address string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}

	if address == "" {
		delete(sess.Values, walletKey)
	} else {
		sess.Values[walletKey] = address
	}

	return sess.Save(c.Request(), c.Response())
}
