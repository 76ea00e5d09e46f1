package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrPermissionDenied = ErrorResponse{
		Status:  "error",
		Error:   "permission_denied",
		Details: "Media access is not granted",
	}

	ErrInvalidIndex = ErrorResponse{
		Status:  "error",
		Error:   "invalid_index",
		Details: "Index is out of range",
	}

	ErrViewerEmpty = ErrorResponse{
		Status:  "error",
		Error:   "viewer_empty",
		Details: "Viewer has no items",
	}

	ErrNotShareable = ErrorResponse{
		Status:  "error",
		Error:   "not_shareable",
		Details: "Current item can not be shared",
	}

	ErrNotFound = ErrorResponse{
		Status: "error",
		Error:  "not_found",
	}

	ErrWalletNotConnected = ErrorResponse{
		Status:  "error",
		Error:   "wallet_not_connected",
		Details: "Connect a wallet first",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
