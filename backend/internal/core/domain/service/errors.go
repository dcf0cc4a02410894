package service

import "errors"

var (
	ErrPieceExists      = errors.New("деталь с таким именем уже есть")
	ErrInvalidPiece     = errors.New("некорректные параметры детали")
	ErrBuildingExists   = errors.New("здание с таким именем уже есть")
	ErrBuildingNotFound = errors.New("здание не найдено")
)
