package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/app/uow"
)

const codeWriteConflict = 112

func asServerError(err error, target *mongo.ServerError) bool {
	return errors.As(err, target)
}

// mapErr turns transaction conflicts into uow.ErrConflict so the whole unit
// is retried; other driver errors pass through.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if conflicting(err) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	return err
}

func conflicting(err error) bool {
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var se mongo.ServerError
	if !asServerError(err, &se) {
		return false
	}
	return se.HasErrorCode(codeWriteConflict) || se.HasErrorLabel("TransientTransactionError")
}
