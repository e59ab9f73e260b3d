package mapper

import (
	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/model"
)

// ToUserDTO 将 user 转为对外公开的 dto
func ToUserDTO(u *model.User) *dto.UserDTO {
	if u == nil {
		return nil
	}
	return &dto.UserDTO{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		ProfileImg: u.ProfileImg,
	}
}
