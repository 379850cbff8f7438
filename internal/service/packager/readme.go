package packager

import "os"

// readmeFileMode keeps the README readable for everyone.
const readmeFileMode os.FileMode = 0o644

// ReadmeText is the user-facing usage note staged next to the binary.
// The wording is fixed; the installer checksums it like any other file.
const ReadmeText = `PhotoSelector

사용 방법:
1. PhotoSelector 실행
2. "Select Folder" 버튼을 클릭하여 사진이 있는 폴더 선택
3. 키보드 단축키:
   - 좌/우 화살표: 이전/다음 사진
   - S: 현재 사진 선택
   - D: 현재 사진 삭제
`
